// Package navigation maps screens to the access level they require and decides
// whether a session may enter them.
package navigation

import (
	"strings"

	"github.com/sebastian05-bossu/1337loader/internal/authz"
)

// Level is the access level a screen requires.
type Level string

// Access levels, from least to most restrictive. LevelBanned is reachable only while banned.
const (
	LevelPublic        Level = "public"
	LevelAuthenticated Level = "authenticated"
	LevelAdmin         Level = "admin"
	LevelOwner         Level = "owner"
	LevelBanned        Level = "banned"
)

// Redirect targets.
const (
	PathHome   = "/"
	PathLogin  = "/login"
	PathBanned = "/banned"
)

// Screen describes a navigable screen.
type Screen struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Label string `json:"label"`
	Level Level  `json:"level"`
}

// Session is the caller's identity as seen by the gate.
type Session struct {
	UserID string
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.UserID) != ""
}

// Decision is the outcome of a navigation check.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	Redirect   string `json:"redirect,omitempty"`
	Unresolved bool   `json:"unresolved,omitempty"` // Authorization state could not be resolved; re-check soon.
}

// Decide applies the gate rules to screen for the given session and resolution result.
// state is ignored when resolveErr is non-nil.
func Decide(screen Screen, session Session, state authz.State, resolveErr error) Decision {
	if screen.Level == LevelPublic {
		return Decision{Allowed: true}
	}
	if !session.Authenticated() {
		return Decision{Redirect: PathLogin}
	}

	if resolveErr != nil {
		switch screen.Level {
		case LevelAuthenticated:
			// Bans are a denylist; missing information does not block ordinary access.
			return Decision{Allowed: true, Unresolved: true}
		case LevelBanned:
			// Banned-only content never concludes "not banned" from an outage.
			return Decision{Allowed: true, Unresolved: true}
		default:
			return Decision{Redirect: PathHome, Unresolved: true}
		}
	}

	if screen.Level == LevelBanned {
		if state.IsBanned {
			return Decision{Allowed: true}
		}
		return Decision{Redirect: PathHome}
	}
	if state.IsBanned {
		return Decision{Redirect: PathBanned}
	}

	switch screen.Level {
	case LevelAuthenticated:
		return Decision{Allowed: true}
	case LevelAdmin:
		if state.IsAdmin {
			return Decision{Allowed: true}
		}
	case LevelOwner:
		if state.IsOwner {
			return Decision{Allowed: true}
		}
	}
	return Decision{Redirect: PathHome}
}

// Screens returns a copy of all screen definitions.
func Screens() []Screen {
	out := make([]Screen, len(screens))
	copy(out, screens)
	return out
}

// Lookup returns the screen with the given key.
func Lookup(key string) (Screen, bool) {
	screen, ok := screenMap[strings.ToLower(strings.TrimSpace(key))]
	return screen, ok
}

func newScreen(key, path, label string, level Level) Screen {
	return Screen{Key: key, Path: path, Label: label, Level: level}
}

// screens is the ordered list of screens.
var screens = []Screen{
	newScreen("home", "/", "Home", LevelPublic),
	newScreen("features", "/features", "Features", LevelPublic),
	newScreen("buy", "/buy", "Buy", LevelPublic),
	newScreen("login", "/login", "Login", LevelPublic),
	newScreen("register", "/register", "Register", LevelPublic),
	newScreen("dashboard", "/dashboard", "Dashboard", LevelAuthenticated),
	newScreen("download", "/download", "Download", LevelAuthenticated),
	newScreen("admin", "/admin", "Admin Panel", LevelOwner),
	newScreen("banned", "/banned", "Banned", LevelBanned),
}

var screenMap = func() map[string]Screen {
	out := make(map[string]Screen, len(screens))
	for _, screen := range screens {
		out[screen.Key] = screen
	}
	return out
}()
