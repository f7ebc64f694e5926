package restroutes

// Method is the HTTP method of a request sent by a Client.
// Generated route groups refer to these constants only.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

func (m Method) String() string {
	return string(m)
}

