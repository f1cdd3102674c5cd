package contract

// Role names a conversation participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry of a conversation. The set of implementations is closed:
// SystemTurn, UserTurn, AssistantTurn and ToolTurn.
type Turn interface {
	Role() Role
	turn()
}

type SystemTurn struct {
	Text string
}

type UserTurn struct {
	Text string
}

// AssistantTurn may carry tool calls with empty Text.
type AssistantTurn struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolTurn carries the result of a tool call issued by an earlier AssistantTurn.
type ToolTurn struct {
	ToolCallID string
	ToolName   string
	Result     string
}

func (SystemTurn) Role() Role    { return RoleSystem }
func (UserTurn) Role() Role      { return RoleUser }
func (AssistantTurn) Role() Role { return RoleAssistant }
func (ToolTurn) Role() Role      { return RoleTool }

func (SystemTurn) turn()    {}
func (UserTurn) turn()      {}
func (AssistantTurn) turn() {}
func (ToolTurn) turn()      {}

// ToolCall is a model request to invoke a named tool. ID is opaque and
// round-tripped unchanged.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolDef describes a callable tool; Parameters is a JSON schema.
type ToolDef struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters"`
}

// StructuredSchema requests a JSON reply conforming to Schema.
type StructuredSchema struct {
	Name        string
	Description string
	Schema      map[string]any
}

type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// Response is the normalized result of one provider call. Text is empty when
// the provider returned only tool calls. Raw holds the payload as received
// and is nil for streamed responses.
type Response struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
	Usage      Usage      `json:"usage"`
	Raw        []byte     `json:"-"`
}

// Options override client defaults for a single call. Zero values keep the
// configured defaults.
type Options struct {
	Model       string
	Temperature *float64
	MaxTokens   int
	TopK        int
}
