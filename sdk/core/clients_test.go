package core

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/stretchr/testify/require"
)

var testClient = Client{
	FirstName: "Tony",
	LastName:  "Stark",
	Age:       53,
	Gender:    "male",
	Telephone: "555-0100",
	Email:     "tony@starkindustries.com",
	Reason:    "shrapnel",
}

func TestClientsClientList(t *testing.T) {
	server := newTestServer(t, func(router *mux.Router) {
		router.HandleFunc(
			"/clients",
			func(w http.ResponseWriter, r *http.Request) {
				c := testClient
				c.ID = testClientID
				writeJSON(t, w, http.StatusOK, []Client{c})
			},
		).Methods(http.MethodGet)
	})
	defer server.Close()
	clients, err := NewClientsClient(server.URL, testTokenSource(), nil).
		List(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.Equal(t, testClientID, clients[0].ID)
	require.Equal(t, "Tony Stark", clients[0].FullName())
}

func TestClientsClientGet(t *testing.T) {
	server := newTestServer(t, func(router *mux.Router) {
		router.HandleFunc(
			"/clients/{id}",
			func(w http.ResponseWriter, r *http.Request) {
				if mux.Vars(r)["id"] != fmt.Sprintf("%d", testClientID) {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintln(
					w,
					`{"id":7,"first_name":"Tony","last_name":"Stark","age":53,`+
						`"created_at":"Tue, 05 Mar 2024 14:30:00 GMT"}`,
				)
			},
		).Methods(http.MethodGet)
	})
	defer server.Close()
	client := NewClientsClient(server.URL, testTokenSource(), nil)

	c, err := client.Get(context.Background(), testClientID)
	require.NoError(t, err)
	require.Equal(t, testClientID, c.ID)
	require.NotNil(t, c.Created)
	require.Equal(t, 2024, c.Created.Year())

	_, err = client.Get(context.Background(), 8)
	require.IsType(t, &meta.ErrNotFound{}, err)
}

func TestClientsClientCreate(t *testing.T) {
	server := newTestServer(t, func(router *mux.Router) {
		router.HandleFunc(
			"/clients",
			func(w http.ResponseWriter, r *http.Request) {
				c := Client{}
				readJSON(t, r, &c)
				require.Zero(t, c.ID)
				require.Equal(t, testClient.Email, c.Email)
				writeJSON(
					t,
					w,
					http.StatusCreated,
					map[string]interface{}{
						"message": "Client created successfully",
						"id":      testClientID,
					},
				)
			},
		).Methods(http.MethodPost)
	})
	defer server.Close()
	client := NewClientsClient(server.URL, testTokenSource(), nil)

	id, err := client.Create(context.Background(), testClient)
	require.NoError(t, err)
	require.Equal(t, testClientID, id)

	invalid := testClient
	invalid.FirstName = ""
	_, err = client.Create(context.Background(), invalid)
	require.IsType(t, &meta.ErrValidation{}, err)
}

func TestClientsClientUpdate(t *testing.T) {
	server := newTestServer(t, func(router *mux.Router) {
		router.HandleFunc(
			"/clients/{id}",
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "7", mux.Vars(r)["id"])
				c := Client{}
				readJSON(t, r, &c)
				require.Equal(t, 54, c.Age)
				writeJSON(
					t,
					w,
					http.StatusOK,
					map[string]string{"message": "Client updated successfully"},
				)
			},
		).Methods(http.MethodPut)
	})
	defer server.Close()
	updated := testClient
	updated.Age = 54
	err := NewClientsClient(server.URL, testTokenSource(), nil).
		Update(context.Background(), testClientID, updated)
	require.NoError(t, err)
}

func TestClientsClientDelete(t *testing.T) {
	server := newTestServer(t, func(router *mux.Router) {
		router.HandleFunc(
			"/clients/{id}",
			func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "7", mux.Vars(r)["id"])
				w.WriteHeader(http.StatusOK)
			},
		).Methods(http.MethodDelete)
	})
	defer server.Close()
	err := NewClientsClient(server.URL, testTokenSource(), nil).
		Delete(context.Background(), testClientID)
	require.NoError(t, err)
}
