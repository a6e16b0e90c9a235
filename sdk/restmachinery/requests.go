package restmachinery

// OutboundRequest models a request to the API server.
type OutboundRequest struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Headers     map[string]string
	ReqBodyObj  interface{}
	// SuccessCode is the status code that indicates success. When zero, any
	// 2xx status code indicates success.
	SuccessCode int
	RespObj     interface{}
}
