package social

import (
	"fmt"

	"github.com/dropDatabas3/brandkit/internal/validation"
)

// FlowState es la etapa del flujo OAuth de vinculación.
type FlowState int

const (
	StateIdle FlowState = iota
	StateStarted
	StateProviderRedirected
	StateCallbackReceived
	StateVerified
	StateRejected
	StateLinked
	StateLinkFailed
)

var stateNames = [...]string{
	StateIdle:               "idle",
	StateStarted:            "started",
	StateProviderRedirected: "provider_redirected",
	StateCallbackReceived:   "callback_received",
	StateVerified:           "verified",
	StateRejected:           "rejected",
	StateLinked:             "linked",
	StateLinkFailed:         "link_failed",
}

func (s FlowState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("FlowState(%d)", int(s))
}

// Terminal reporta si el flujo ya no avanza (cookie y state se limpian).
func (s FlowState) Terminal() bool {
	return s == StateRejected || s == StateLinked || s == StateLinkFailed
}

var transitions = map[FlowState][]FlowState{
	StateIdle:               {StateStarted},
	StateStarted:            {StateProviderRedirected},
	StateProviderRedirected: {StateCallbackReceived},
	StateCallbackReceived:   {StateVerified, StateRejected},
	StateVerified:           {StateLinked, StateLinkFailed},
}

// CanTransition reporta si from -> to es un paso válido del flujo.
func CanTransition(from, to FlowState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reason es el código corto de resultado que viaja en ?reason= o en {error}.
type Reason string

const (
	ReasonSuccess Reason = "success"

	// rejected
	ReasonProviderError  Reason = "provider_error"
	ReasonInvalidState   Reason = "invalid_state"
	ReasonInvalidClient  Reason = "invalid_client"
	ReasonUnauthorized   Reason = "unauthorized"
	ReasonNoClient       Reason = "no_client"
	ReasonMissingEnv     Reason = "missing_env"
	ReasonInvalidRequest Reason = "invalid_request"
	ReasonMissingToken   Reason = "missing_token"

	// link_failed
	ReasonTokenExchangeFailed    Reason = "token_exchange_failed"
	ReasonMissingAccessToken     Reason = "missing_access_token"
	ReasonPagesReadFailed        Reason = "pages_read_failed"
	ReasonNoBusinessAccount      Reason = "no_business_account"
	ReasonMissingPageAccessToken Reason = "missing_page_access_token"
	ReasonProfileReadFailed      Reason = "profile_read_failed"
	ReasonInvalidProfile         Reason = "invalid_profile"
	ReasonEncryptFailed          Reason = "encrypt_failed"
	ReasonDBReadFailed           Reason = "db_read_failed"
	ReasonDBUpdateFailed         Reason = "db_update_failed"
	ReasonDBInsertFailed         Reason = "db_insert_failed"
)

// ProviderReason convierte el ?error= de Meta en un reason seguro para la URL.
func ProviderReason(raw string) Reason {
	if validation.ValidReasonCode(raw) {
		return Reason(raw)
	}
	return ReasonProviderError
}

// Outcome es el estado terminal de un flujo.
type Outcome struct {
	State     FlowState
	Reason    Reason
	AccountID string
	Created   bool
}

// OK reporta si la cuenta quedó vinculada.
func (o Outcome) OK() bool { return o.State == StateLinked }

func rejected(r Reason) Outcome   { return Outcome{State: StateRejected, Reason: r} }
func linkFailed(r Reason) Outcome { return Outcome{State: StateLinkFailed, Reason: r} }
