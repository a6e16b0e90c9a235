package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/golang/glog"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	praxisconfig "github.com/praxis-health/praxis/internal/config"
	"github.com/praxis-health/praxis/internal/oidc"
	"github.com/praxis-health/praxis/internal/session"
	"github.com/praxis-health/praxis/sdk/authx"
	"github.com/urfave/cli/v2"
)

var cliFlagServer = &cli.StringFlag{
	Name:     flagServer,
	Aliases:  []string{"s"},
	Usage:    "Use the API server at the specified address (required)",
	Required: true,
}

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "Log in to praxis",
	Description: "By default, logs in with an email address and password. " +
		"Use --google or --apple to log in with an identity issued by one of " +
		"those providers instead.",
	Flags: []cli.Flag{
		cliFlagServer,
		&cli.StringFlag{
			Name:    flagEmail,
			Aliases: []string{"e"},
			Usage:   "Log in using the specified email address",
		},
		&cli.StringFlag{
			Name:    flagPassword,
			Aliases: []string{"p"},
			Usage: "Specify the password for non-interactive login; if not set, " +
				"you will be prompted",
		},
		&cli.BoolFlag{
			Name:  flagGoogle,
			Usage: "Log in with a Google account",
		},
		&cli.BoolFlag{
			Name:  flagApple,
			Usage: "Log in with an Apple ID",
		},
		&cli.StringFlag{
			Name: flagIdentityToken,
			Usage: "An identity token already obtained from Google or Apple; " +
				"required with --apple; if not set with --google, one is obtained " +
				"using OpenID Connect",
		},
		&cli.BoolFlag{
			Name:    flagBrowse,
			Aliases: []string{"b"},
			Usage: "Use the system's default web browser to complete Google " +
				"authentication",
		},
	},
	Action: login,
}

var registerCommand = &cli.Command{
	Name:  "register",
	Usage: "Create a praxis account and log in to it",
	Flags: []cli.Flag{
		cliFlagServer,
		&cli.StringFlag{
			Name:     flagEmail,
			Aliases:  []string{"e"},
			Usage:    "The email address to register (required)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  flagFirstName,
			Usage: "Your given name",
		},
		&cli.StringFlag{
			Name:  flagLastName,
			Usage: "Your surname",
		},
		&cli.StringFlag{
			Name:    flagPassword,
			Aliases: []string{"p"},
			Usage: "Specify the password for non-interactive registration; if " +
				"not set, you will be prompted",
		},
	},
	Action: register,
}

var logoutCommand = &cli.Command{
	Name:   "logout",
	Usage:  "Log out of praxis",
	Action: logout,
}

var whoamiCommand = &cli.Command{
	Name:  "whoami",
	Usage: "Show who you are logged in as",
	Flags: []cli.Flag{
		cliFlagOutput,
	},
	Action: whoami,
}

func login(c *cli.Context) error {
	address := c.String(flagServer)
	google := c.Bool(flagGoogle)
	apple := c.Bool(flagApple)
	identityToken := c.String(flagIdentityToken)

	if google && apple {
		return errors.Errorf(
			"--%s and --%s are mutually exclusive",
			flagGoogle,
			flagApple,
		)
	}

	settings, err := praxisconfig.GetConfigFromEnvironment()
	if err != nil {
		return err
	}
	sessions, err := getSessionManager(c, address, settings)
	if err != nil {
		return err
	}
	defer sessions.Close()

	var user authx.User
	switch {
	case google:
		if identityToken == "" {
			if identityToken, err =
				getGoogleIdentityToken(c.Context, c.Bool(flagBrowse)); err != nil {
				return err
			}
		}
		user, err = sessions.LoginWithFederatedIdentity(
			c.Context,
			identityToken,
			authx.ProviderGoogle,
		)
	case apple:
		if identityToken == "" {
			return errors.Errorf(
				"--%s is required when logging in with --%s",
				flagIdentityToken,
				flagApple,
			)
		}
		user, err = sessions.LoginWithFederatedIdentity(
			c.Context,
			identityToken,
			authx.ProviderApple,
		)
	default:
		var email, password string
		if email, password, err = getCredentials(c); err != nil {
			return err
		}
		user, err = sessions.Login(c.Context, email, password)
	}
	if err != nil {
		return err
	}

	if err := (config{APIAddress: address}).save(); err != nil {
		return errors.Wrap(err, "error persisting configuration")
	}

	fmt.Printf("\nYou are logged in as %s.\n", user.FullName())
	return nil
}

func getCredentials(c *cli.Context) (string, string, error) {
	email := c.String(flagEmail)
	password := c.String(flagPassword)
	if (email == "" || password == "") && !isInteractive() {
		return "", "", errors.Errorf(
			"--%s and --%s are required when logging in non-interactively",
			flagEmail,
			flagPassword,
		)
	}
	if email == "" {
		if err := survey.AskOne(
			&survey.Input{
				Message: "Email",
			},
			&email,
			survey.WithValidator(survey.Required),
		); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if err := survey.AskOne(
			&survey.Password{
				Message: "Password",
			},
			&password,
			survey.WithValidator(survey.Required),
		); err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}

func getGoogleIdentityToken(
	ctx context.Context,
	browseToAuthURL bool,
) (string, error) {
	oidcConfig, err := oidc.GetConfigFromEnvironment()
	if err != nil {
		return "", err
	}
	flow, err := oidc.NewFlow(ctx, oidcConfig)
	if err != nil {
		return "", err
	}
	authURL := flow.AuthURL()
	if browseToAuthURL {
		if err = openBrowser(authURL); err != nil {
			glog.Warningf("error opening system's default web browser: %s", err)
			fmt.Printf(
				"Error opening authentication URL using the system's default web "+
					"browser.\n\nPlease visit  %s  to complete authentication.\n",
				authURL,
			)
		}
	} else {
		fmt.Printf("Please visit  %s  to complete authentication.\n", authURL)
	}
	return flow.Wait(ctx)
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command(
			"rundll32",
			"url.dll,FileProtocolHandler",
			url,
		).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return errors.New("unsupported OS")
	}
}

func register(c *cli.Context) error {
	address := c.String(flagServer)
	registration := authx.Registration{
		Email:     c.String(flagEmail),
		FirstName: c.String(flagFirstName),
		LastName:  c.String(flagLastName),
		Password:  c.String(flagPassword),
	}

	if registration.Password == "" {
		if !isInteractive() {
			return errors.Errorf(
				"--%s is required when registering non-interactively",
				flagPassword,
			)
		}
		for {
			var password, confirmation string
			if err := survey.AskOne(
				&survey.Password{
					Message: "Choose a password",
				},
				&password,
				survey.WithValidator(survey.MinLength(8)),
			); err != nil {
				return err
			}
			if err := survey.AskOne(
				&survey.Password{
					Message: "Confirm your password",
				},
				&confirmation,
			); err != nil {
				return err
			}
			if password == confirmation {
				registration.Password = password
				break
			}
			fmt.Println("The passwords did not match. Please try again.")
		}
	}

	settings, err := praxisconfig.GetConfigFromEnvironment()
	if err != nil {
		return err
	}
	sessions, err := getSessionManager(c, address, settings)
	if err != nil {
		return err
	}
	defer sessions.Close()

	user, err := sessions.RegisterUser(c.Context, registration)
	if err != nil {
		return err
	}

	if err := (config{APIAddress: address}).save(); err != nil {
		return errors.Wrap(err, "error persisting configuration")
	}

	fmt.Printf("\nWelcome, %s. You are logged in.\n", user.FullName())
	return nil
}

func logout(c *cli.Context) error {
	if c.Args().Len() != 0 {
		return errors.New("logout requires no arguments")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := praxisconfig.GetConfigFromEnvironment()
	if err != nil {
		return err
	}
	sessions, err := getSessionManager(c, cfg.APIAddress, settings)
	if err != nil {
		return err
	}
	defer sessions.Close()

	// Sessions are stateless on the API server. Forgetting the tokens is all
	// there is to logging out.
	sessions.Logout(c.Context)

	if err := removeConfig(); err != nil {
		return errors.Wrap(err, "error deleting configuration")
	}

	fmt.Println("Logout was successful.")
	return nil
}

// identity is what whoami reports.
type identity struct {
	User      authx.User `json:"user"`
	IsAdmin   bool       `json:"isAdmin"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

func whoami(c *cli.Context) error {
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	s, ok := client.sessions.Session()
	if !ok {
		return errNotLoggedIn
	}
	id := identity{
		User:      *s.User,
		IsAdmin:   s.User.IsAdmin,
		ExpiresAt: s.Expiry,
	}
	// The token's own claims are more authoritative than the cached profile,
	// when the token is a JWT.
	if claims, err := session.ParseClaims(s.AccessToken); err != nil {
		glog.V(1).Infof("access token is opaque: %s", err)
	} else {
		id.IsAdmin = id.IsAdmin || claims.IsAdmin
		if !claims.ExpiresAt.IsZero() {
			id.ExpiresAt = claims.ExpiresAt
		}
	}

	if err := printOutput(output, id, func(table *uitable.Table) {
		table.AddRow("NAME", "EMAIL", "PROVIDER", "ADMIN", "SESSION EXPIRES")
		table.AddRow(
			id.User.FullName(),
			id.User.Email,
			id.User.Provider,
			id.IsAdmin,
			id.ExpiresAt.Local().Format("2006-01-02 15:04"),
		)
	}); err != nil {
		return errors.Wrap(err, "error formatting output from whoami operation")
	}
	return nil
}
