package contract

import "fmt"

type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
)

// Dialect selects the wire format a client speaks. Proxy marks the enterprise
// proxy variant; ProxyTools marks a proxy deployment that forwards native
// tool calling.
type Dialect struct {
	Family     Family
	Proxy      bool
	ProxyTools bool
}

var (
	OpenAI         = Dialect{Family: FamilyOpenAI}
	CustomProxy    = Dialect{Family: FamilyOpenAI, Proxy: true}
	Anthropic      = Dialect{Family: FamilyAnthropic}
	AnthropicProxy = Dialect{Family: FamilyAnthropic, Proxy: true}
)

// FlattensTools reports whether tool turns are rewritten into plain user turns
// and tool definitions dropped.
func (d Dialect) FlattensTools() bool {
	return d.Proxy && !d.ProxyTools
}

// Tolerant reports whether unparseable or unrecognized payloads fall back to
// raw text instead of failing.
func (d Dialect) Tolerant() bool {
	return d.Proxy
}

func (d Dialect) Valid() bool {
	return d.Family == FamilyOpenAI || d.Family == FamilyAnthropic
}

func (d Dialect) String() string {
	name := string(d.Family)
	if name == "" {
		name = "unknown"
	}
	if d.Proxy {
		name += "-proxy"
		if d.ProxyTools {
			name += "+tools"
		}
	}
	return name
}

// ParseDialect accepts the names produced by String.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "openai":
		return OpenAI, nil
	case "openai-proxy", "proxy":
		return CustomProxy, nil
	case "openai-proxy+tools":
		return Dialect{Family: FamilyOpenAI, Proxy: true, ProxyTools: true}, nil
	case "anthropic":
		return Anthropic, nil
	case "anthropic-proxy":
		return AnthropicProxy, nil
	case "anthropic-proxy+tools":
		return Dialect{Family: FamilyAnthropic, Proxy: true, ProxyTools: true}, nil
	default:
		return Dialect{}, fmt.Errorf("unknown dialect %q", s)
	}
}
