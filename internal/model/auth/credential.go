package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/tidwall/sjson"
)

const AnthropicVersion = "2023-06-01"

// Credential is either a plain API key or the enterprise proxy bundle of
// key, system code and company code. It is immutable once built.
type Credential struct {
	apiKey      string
	systemCode  string
	companyCode string
	custom      bool
}

func Plain(apiKey string) Credential {
	return Credential{apiKey: apiKey}
}

func Custom(apiKey, systemCode, companyCode string) Credential {
	return Credential{apiKey: apiKey, systemCode: systemCode, companyCode: companyCode, custom: true}
}

// FromParts builds a Custom credential only when both codes are present.
func FromParts(apiKey, systemCode, companyCode string) Credential {
	if strings.TrimSpace(systemCode) != "" && strings.TrimSpace(companyCode) != "" {
		return Custom(apiKey, systemCode, companyCode)
	}
	return Plain(apiKey)
}

func (c Credential) IsCustom() bool { return c.custom }

func (c Credential) HasKey() bool { return c.apiKey != "" }

func (c Credential) Kind() string {
	if c.custom {
		return "custom"
	}
	return "plain"
}

func (c Credential) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind(), Mask(c.apiKey))
}

func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", c.Kind()),
		slog.String("api_key", Mask(c.apiKey)),
	)
}

type customBundle struct {
	APIKey      string `json:"apiKey"`
	SystemCode  string `json:"systemCode"`
	CompanyCode string `json:"companyCode"`
}

// AuthorizationHeader renders the Authorization header value.
func AuthorizationHeader(c Credential) string {
	if !c.custom {
		return "Bearer " + c.apiKey
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// a struct of strings always encodes
	_ = enc.Encode(customBundle{APIKey: c.apiKey, SystemCode: c.systemCode, CompanyCode: c.companyCode})
	payload := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return "Bearer " + base64.StdEncoding.EncodeToString(payload)
}

// ProviderHeaders returns the full header set for a request in dialect d.
// Anthropic endpoints take a plain key only through x-api-key.
func ProviderHeaders(d contract.Dialect, c Credential) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")

	if d.Family == contract.FamilyAnthropic {
		h.Set("anthropic-version", AnthropicVersion)
		if !c.custom {
			h.Set("x-api-key", c.apiKey)
			return h
		}
	}

	h.Set("Authorization", AuthorizationHeader(c))
	return h
}

// MarkOrigin sets need_origin on request bodies sent with a Custom credential.
func MarkOrigin(body []byte, c Credential) ([]byte, error) {
	if !c.custom {
		return body, nil
	}
	return sjson.SetBytes(body, "need_origin", true)
}

// Mask keeps the first and last two characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= 4 {
		return "****"
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"X-Api-Key":     true,
}

// RedactHeaders returns a copy of h safe to hand to loggers and observers.
func RedactHeaders(h http.Header) http.Header {
	out := h.Clone()
	for name, values := range out {
		if !sensitiveHeaders[http.CanonicalHeaderKey(name)] {
			continue
		}
		for i, v := range values {
			if scheme, token, ok := strings.Cut(v, " "); ok {
				values[i] = scheme + " " + Mask(token)
			} else {
				values[i] = Mask(v)
			}
		}
	}
	return out
}
