// Copyright 2026 The Dramaforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notify

import "time"

// MessageType classifies a pushed message.
type MessageType string

const (
	// TypeProgress carries a task progress frame in Data.
	TypeProgress MessageType = "progress"

	// TypeStatus carries a lifecycle status string plus a human message.
	TypeStatus MessageType = "status"

	// TypeError carries an error description.
	TypeError MessageType = "error"

	// TypeSuccess announces a completed operation.
	TypeSuccess MessageType = "success"

	// TypeInfo carries an informational note.
	TypeInfo MessageType = "info"
)

// Envelope is the wire shape of one pushed message. Fields beyond Type and
// Timestamp are populated per message type and omitted otherwise.
type Envelope struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`

	// Data carries structured payload (progress frames, extra context).
	Data map[string]interface{} `json:"data,omitempty"`

	// Status is the lifecycle state for status messages.
	Status string `json:"status,omitempty"`

	// Message is the human-readable text for status/success/info messages.
	Message string `json:"message,omitempty"`

	// Error is the error text for error messages.
	Error string `json:"error,omitempty"`

	// Details carries extra error context.
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewProgress builds a progress envelope around a task frame.
func NewProgress(data map[string]interface{}) Envelope {
	return Envelope{Type: TypeProgress, Timestamp: time.Now(), Data: data}
}

// NewStatus builds a status envelope.
func NewStatus(status, message string, data map[string]interface{}) Envelope {
	return Envelope{Type: TypeStatus, Timestamp: time.Now(), Status: status, Message: message, Data: data}
}

// NewError builds an error envelope.
func NewError(errText string, details map[string]interface{}) Envelope {
	return Envelope{Type: TypeError, Timestamp: time.Now(), Error: errText, Details: details}
}

// NewSuccess builds a success envelope.
func NewSuccess(message string, data map[string]interface{}) Envelope {
	return Envelope{Type: TypeSuccess, Timestamp: time.Now(), Message: message, Data: data}
}

// NewInfo builds an info envelope.
func NewInfo(message string, data map[string]interface{}) Envelope {
	return Envelope{Type: TypeInfo, Timestamp: time.Now(), Message: message, Data: data}
}
