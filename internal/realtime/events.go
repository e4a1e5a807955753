package realtime

import "encoding/json"

// Inbound events
const (
	EventJoinWorkspace     = "join_workspace"
	EventChatSend          = "chat:send"
	EventTasksMove         = "tasks:move"
	EventWhiteboardRequest = "whiteboard:request_state"
	EventWhiteboardUpdate  = "whiteboard:update"
)

// Outbound events
const (
	EventWorkspaceJoined = "workspace:joined"
	EventChatNew         = "chat:new"
	EventTasksMoved      = "tasks:moved"
	EventWhiteboardState = "whiteboard:state"

	EventErrorAuth      = "error:auth"
	EventErrorRate      = "error:rate"
	EventErrorTasksMove = "error:tasks_move"
	EventErrorInternal  = "error:internal"
)

// Frame is the wire format of every websocket message in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinPayload struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
}

// UnmarshalJSON accepts both a bare workspace id and {"workspaceId": ...}
func (p *joinPayload) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		p.WorkspaceID = id
		return nil
	}
	type plain joinPayload
	return json.Unmarshal(data, (*plain)(p))
}

type chatSendPayload struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	Content     string `json:"content" validate:"required,max=4000"`
}

type taskMovePayload struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	TaskID      string `json:"taskId" validate:"required"`
	ToColumnID  string `json:"toColumnId" validate:"required"`
	ToIndex     *int   `json:"toIndex" validate:"required,gte=0"`
}

type whiteboardRequestPayload struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
}

type whiteboardUpdatePayload struct {
	WorkspaceID string          `json:"workspaceId" validate:"required"`
	Payload     json.RawMessage `json:"payload" validate:"required"`
}

type whiteboardRelay struct {
	Payload json.RawMessage `json:"payload"`
	From    string          `json:"from"`
}

type errorPayload struct {
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// RoomName returns the broadcast room of a workspace
func RoomName(workspaceID string) string {
	return "ws:" + workspaceID
}
