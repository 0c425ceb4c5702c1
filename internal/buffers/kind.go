package buffers

import "fmt"

// Kind identifies the protocol buffer a content condition is scoped to.
type Kind uint8

const (
	Payload Kind = iota
	URI
	RawURI
	HTTPHeader
	HTTPRawHeader
	HTTPClientBody
	HTTPServerBody
	HTTPMethod
	HTTPCookie
	HTTPHost
	HTTPRawHost
	HTTPUserAgent
	HTTPStatMsg
	HTTPStatCode

	numKinds
)

// NumKinds is the number of defined buffer kinds.
const NumKinds = int(numKinds)

var kindNames = [numKinds]string{
	Payload:        "payload",
	URI:            "http_uri",
	RawURI:         "http_raw_uri",
	HTTPHeader:     "http_header",
	HTTPRawHeader:  "http_raw_header",
	HTTPClientBody: "http_client_body",
	HTTPServerBody: "http_server_body",
	HTTPMethod:     "http_method",
	HTTPCookie:     "http_cookie",
	HTTPHost:       "http_host",
	HTTPRawHost:    "http_raw_host",
	HTTPUserAgent:  "http_user_agent",
	HTTPStatMsg:    "http_stat_msg",
	HTTPStatCode:   "http_stat_code",
}

// FastPatternSearchOrder is the order in which buffers are searched when
// resolving the content a fast_pattern directive applies to.
var FastPatternSearchOrder = []Kind{
	Payload,
	URI,
	HTTPClientBody,
	HTTPServerBody,
	HTTPHeader,
	HTTPRawHeader,
	HTTPMethod,
	HTTPCookie,
	RawURI,
	HTTPStatMsg,
	HTTPStatCode,
	HTTPUserAgent,
	HTTPHost,
	HTTPRawHost,
}

func (k Kind) Valid() bool {
	return k < numKinds
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("buffer(%d)", uint8(k))
	}
	return kindNames[k]
}

// IsHTTP reports whether the buffer belongs to the HTTP inspection engine.
func (k Kind) IsHTTP() bool {
	return k.Valid() && k != Payload
}

// Kinds returns every defined buffer kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, NumKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind maps a rule-language buffer name to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}
