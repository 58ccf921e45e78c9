package domain

import (
	"fmt"
	"time"
)

// Strategy selects how a panel populates its result collections.
type Strategy string

const (
	StrategyStatic    Strategy = "static"
	StrategyNetworked Strategy = "networked"
)

// IsValid checks if the strategy is a known value
func (s Strategy) IsValid() bool {
	return s == StrategyStatic || s == StrategyNetworked
}

// ParseStrategy converts a string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(s)
	if !st.IsValid() {
		return "", NewDomainErrorWithCause(ErrCodeValidation, ErrInvalidStrategy.Message, fmt.Errorf("unknown strategy %q", s))
	}
	return st, nil
}

// FetchMode selects how the networked strategy waits on its three requests.
type FetchMode string

const (
	// FetchModeJoint waits for all three; any failure clears every collection.
	FetchModeJoint FetchMode = "joint"
	// FetchModeIndependent assigns each collection on its own; a failed
	// request clears only its collection.
	FetchModeIndependent FetchMode = "independent"
)

// IsValid checks if the mode is a known value
func (m FetchMode) IsValid() bool {
	return m == FetchModeJoint || m == FetchModeIndependent
}

// ParseFetchMode converts a string into a FetchMode.
func ParseFetchMode(s string) (FetchMode, error) {
	m := FetchMode(s)
	if !m.IsValid() {
		return "", NewDomainErrorWithCause(ErrCodeValidation, ErrInvalidFetchMode.Message, fmt.Errorf("unknown fetch mode %q", s))
	}
	return m, nil
}

// User-facing messages shown by the panel.
const (
	MsgEditorFailure    = "The structure editor reported an error"
	MsgRetrievalFailure = "Failed to retrieve data"
)

// PanelState is the renderable state of an interactive panel.
type PanelState struct {
	ID          string    `json:"id"`
	EditorReady bool      `json:"editor_ready"`
	SMILES      string    `json:"smiles"`
	Results     ResultSet `json:"results"`
	Error       string    `json:"error,omitempty"`
	Loading     bool      `json:"loading"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasError reports whether an error message is set.
func (s PanelState) HasError() bool {
	return s.Error != ""
}
