package models

// Installation status values reported to the shell
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusUnknown = "unknown"
	StatusError   = "error"
)

// SavedInstallation is a server folder the user registered with the launcher.
// CoreJar may be empty until the user picks an executable archive.
type SavedInstallation struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	CoreJar string `json:"coreJar"`
}

// InstallationSettings mirrors the general section of settings.yml
type InstallationSettings struct {
	MOTD       string `json:"motd"`
	ServerPort uint16 `json:"server-port"`
	MaxPlayers uint32 `json:"max-players"`
}

// InstallationSummary is the merged, UI-facing view of one installation.
// Status is StatusError exactly when ErrorMessage is set.
type InstallationSummary struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Path         string               `json:"path"`
	Status       string               `json:"status"`
	CoreJar      string               `json:"coreJar"`
	Settings     InstallationSettings `json:"settings"`
	ErrorMessage *string              `json:"errorMessage"`
}

// Failed marks the summary as an error with the given message.
func (s *InstallationSummary) Failed(message string) {
	s.Status = StatusError
	s.ErrorMessage = &message
}
