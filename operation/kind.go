package operation

import "fmt"

// Kind tags what an operation does downstream.
type Kind int

const (
	Create Kind = iota
	Query
	Read
	Update
	Delete
	Callback
	SpecialAction
)

var kindNames = [...]string{"create", "query", "read", "update", "delete", "callback", "special"}

func (kind Kind) String() string {
	if kind < 0 || int(kind) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(kind))
	}

	return kindNames[kind]
}

// Platform identifies the downstream service.
type Platform int

const (
	CRM Platform = iota
	Telephony
	Messaging
	Files
)

var platformNames = [...]string{"Salesforce", "Dialpad", "Twilio", "Files"}

func (platform Platform) String() string {
	if platform < 0 || int(platform) >= len(platformNames) {
		return fmt.Sprintf("Platform(%d)", int(platform))
	}

	return platformNames[platform]
}

// Auth selects how the credential for the downstream call is obtained.
type Auth int

const (
	// AuthNone makes no authenticated downstream call.
	AuthNone Auth = iota
	// AuthCaller takes a bearer token and instance url from the payload.
	AuthCaller
	// AuthDialpadKey uses the process-held Dialpad api key.
	AuthDialpadKey
	// AuthDialpadOAuth uses the process-held Dialpad oauth client.
	AuthDialpadOAuth
	// AuthTwilio uses the process-held Twilio account sid and auth token.
	AuthTwilio
)

// Inbound is the encoding of the inbound request body.
type Inbound int

const (
	InboundJSON Inbound = iota
	InboundForm
)
