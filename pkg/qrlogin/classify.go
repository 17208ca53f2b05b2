package qrlogin

import (
	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/poll"
)

// ClassifyCheck maps a check response onto the poll state machine. A
// confirmed status without a token is not usable and keeps polling.
func ClassifyCheck(resp *almondsdk.QRCheckResponse) poll.Step {
	if resp == nil {
		return poll.Continue
	}
	switch resp.Status {
	case almondsdk.StatusConfirmed:
		if resp.Token != "" {
			return poll.Succeeded
		}
		return poll.Continue
	case almondsdk.StatusScanned:
		return poll.Scanned
	default:
		return poll.Continue
	}
}

// Credential is what a confirmed check hands to the Adopter.
type Credential struct {
	Token        string
	RefreshToken string
	User         *almondsdk.QRUserInfo
}

// CredentialFrom extracts the credential from a confirmed check.
func CredentialFrom(resp *almondsdk.QRCheckResponse) Credential {
	return Credential{Token: resp.Token, RefreshToken: resp.RefreshToken, User: resp.UserInfo}
}
