package session

import (
	"github.com/AlexZinkM/tkey-wallet/internal/model"
)

// State is the position of the session in the login flow
type State int

const (
	Uninitialized State = iota
	Initialized
	AwaitingShares
	LoggedIn
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case AwaitingShares:
		return "awaiting_shares"
	case LoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Operation names as reported in Snapshot.Actions
const (
	ActionLogin               = "login"
	ActionReconstructKey      = "reconstructKey"
	ActionKeyDetails          = "keyDetails"
	ActionUserInfo            = "userInfo"
	ActionInputRecoveryShare  = "inputRecoveryShare"
	ActionRecoverFromMnemonic = "recoverFromMnemonic"
	ActionExportMnemonicShare = "exportMnemonicShare"
	ActionSetDeviceShare      = "setDeviceShare"
	ActionGetDeviceShare      = "getDeviceShare"
	ActionGetAccounts         = "getAccounts"
	ActionGetBalance          = "getBalance"
	ActionSignMessage         = "signMessage"
	ActionCriticalReset       = "criticalResetAccount"
	ActionLogout              = "logout"
)

var actionsByState = map[State][]string{
	Initialized: {
		ActionLogin,
	},
	AwaitingShares: {
		ActionReconstructKey,
		ActionKeyDetails,
		ActionUserInfo,
		ActionInputRecoveryShare,
		ActionRecoverFromMnemonic,
		ActionGetDeviceShare,
		ActionCriticalReset,
		ActionLogout,
	},
	LoggedIn: {
		ActionGetAccounts,
		ActionGetBalance,
		ActionSignMessage,
		ActionKeyDetails,
		ActionUserInfo,
		ActionExportMnemonicShare,
		ActionSetDeviceShare,
		ActionGetDeviceShare,
		ActionCriticalReset,
		ActionLogout,
	},
}

// Snapshot is a point-in-time view of the session
type Snapshot struct {
	State                      State
	ServiceProviderInitialized bool
	KeyInitialized             bool
	LoggedIn                   bool
	Busy                       bool
	RequiredShares             int
	User                       *model.UserProfile
	Actions                    []string
}

// Response converts the snapshot to its API form
func (s Snapshot) Response() model.SessionResponse {
	return model.SessionResponse{
		State:                      s.State.String(),
		ServiceProviderInitialized: s.ServiceProviderInitialized,
		KeyInitialized:             s.KeyInitialized,
		LoggedIn:                   s.LoggedIn,
		Busy:                       s.Busy,
		RequiredShares:             s.RequiredShares,
		User:                       s.User,
		Actions:                    s.Actions,
	}
}

// ShareProgress reports how far the login is after a share was supplied
type ShareProgress struct {
	RequiredShares int
	LoggedIn       bool
}

// MnemonicExport is a freshly generated share in mnemonic form
type MnemonicExport struct {
	Mnemonic   string
	ShareIndex uint32
}
