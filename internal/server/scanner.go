package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumi-launcher/backend/internal/logging"
	"gopkg.in/yaml.v3"
)

const (
	// ArchiveExtension identifies executable server archives, compared case-insensitively.
	ArchiveExtension = ".jar"
	// SettingsFileName is the server configuration file expected in every installation.
	SettingsFileName = "settings.yml"
)

var (
	ErrDirectoryRead = errors.New("directory read failed")
	ErrConfigParse   = errors.New("settings parse failed")
)

// InstallationConfig holds the settings.yml fields the launcher cares about.
// CoreJar stays empty until a single archive has been chosen.
type InstallationConfig struct {
	MOTD       string `json:"motd"`
	ServerPort uint16 `json:"server_port"`
	MaxPlayers uint32 `json:"max_players"`
	CoreJar    string `json:"core_jar"`
}

// ScanKind names the case of a ScanOutcome on the wire.
type ScanKind string

const (
	KindValid          ScanKind = "Valid"
	KindNoConfig       ScanKind = "NoSettings"
	KindNoArchives     ScanKind = "NoJars"
	KindNeedsSelection ScanKind = "NeedCoreSelection"
)

// ScanOutcome is one of ScanValid, ScanNoConfig, ScanNoArchives or ScanNeedsSelection.
type ScanOutcome interface {
	Kind() ScanKind
	isScanOutcome()
}

// ScanValid means exactly one archive exists and settings.yml parsed.
type ScanValid struct {
	Config InstallationConfig `json:"config"`
	Jars   []string           `json:"jars"`
}

// ScanNoConfig means the folder is missing or has no settings.yml.
type ScanNoConfig struct{}

// ScanNoArchives means the folder holds no executable archive.
type ScanNoArchives struct{}

// ScanNeedsSelection means several archives exist and the user must pick one.
type ScanNeedsSelection struct {
	Jars   []string           `json:"jars"`
	Config InstallationConfig `json:"config"`
}

func (ScanValid) Kind() ScanKind          { return KindValid }
func (ScanNoConfig) Kind() ScanKind       { return KindNoConfig }
func (ScanNoArchives) Kind() ScanKind     { return KindNoArchives }
func (ScanNeedsSelection) Kind() ScanKind { return KindNeedsSelection }

func (ScanValid) isScanOutcome()          {}
func (ScanNoConfig) isScanOutcome()       {}
func (ScanNoArchives) isScanOutcome()     {}
func (ScanNeedsSelection) isScanOutcome() {}

// ScanErrorKind distinguishes the two ways a scan can fail.
type ScanErrorKind int

const (
	DirectoryRead ScanErrorKind = iota
	ConfigParse
)

// ScanError is returned when a folder cannot be listed or its settings cannot be parsed.
type ScanError struct {
	Kind ScanErrorKind
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	switch e.Kind {
	case DirectoryRead:
		return fmt.Sprintf("Read dir error: %v", e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ScanError) Unwrap() error { return e.Err }

func (e *ScanError) Is(target error) bool {
	switch e.Kind {
	case DirectoryRead:
		return target == ErrDirectoryRead
	case ConfigParse:
		return target == ErrConfigParse
	}
	return false
}

// InstallationScanner classifies an installation folder.
type InstallationScanner interface {
	Scan(path string) (ScanOutcome, error)
}

// FolderScanner inspects the filesystem without modifying it.
type FolderScanner struct{}

func NewFolderScanner() *FolderScanner {
	return &FolderScanner{}
}

type settingsFile struct {
	General *struct {
		MOTD       *textScalar `yaml:"motd"`
		ServerPort *uint16 `yaml:"server-port"`
		MaxPlayers *uint32 `yaml:"max-players"`
	} `yaml:"general"`
}

// Scan checks for archives before settings, so a folder without archives is
// ScanNoArchives whether or not settings.yml exists.
func (s *FolderScanner) Scan(path string) (ScanOutcome, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ScanNoConfig{}, nil
	}

	jars, err := listArchives(path)
	if err != nil {
		return nil, &ScanError{Kind: DirectoryRead, Path: path, Err: err}
	}

	if len(jars) == 0 {
		return ScanNoArchives{}, nil
	}

	settingsPath := filepath.Join(path, SettingsFileName)
	content, err := os.ReadFile(settingsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return ScanNoConfig{}, nil
	}
	if err != nil {
		return nil, &ScanError{Kind: ConfigParse, Path: settingsPath, Err: fmt.Errorf("failed to read %s: %w", SettingsFileName, err)}
	}

	config, err := parseSettings(content)
	if err != nil {
		return nil, &ScanError{Kind: ConfigParse, Path: settingsPath, Err: fmt.Errorf("YAML parse error: %w", err)}
	}

	logging.Component("scanner").Debug("scan_complete", "path", path, "jars", len(jars))

	if len(jars) == 1 {
		config.CoreJar = jars[0]
		return ScanValid{Config: config, Jars: jars}, nil
	}

	return ScanNeedsSelection{Jars: jars, Config: config}, nil
}

// listArchives keeps the order the directory yields; os.ReadDir would sort it.
func listArchives(path string) ([]string, error) {
	dir, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	jars := make([]string, 0, 1)
	for _, entry := range entries {
		name := entry.Name()
		if !isArchiveName(name) {
			continue
		}
		if isRegularFile(filepath.Join(path, name), entry) {
			jars = append(jars, name)
		}
	}
	return jars, nil
}

func isArchiveName(name string) bool {
	ext := filepath.Ext(name)
	return len(name) > len(ext) && strings.EqualFold(ext, ArchiveExtension)
}

func isRegularFile(fullPath string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

// textScalar only accepts YAML strings; `motd: 123` is a type error, not "123".
type textScalar string

func (t *textScalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
		return fmt.Errorf("line %d: invalid type %s for `motd`, expected a string", value.Line, value.ShortTag())
	}
	*t = textScalar(value.Value)
	return nil
}

func parseSettings(content []byte) (InstallationConfig, error) {
	var file settingsFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return InstallationConfig{}, err
	}

	if file.General == nil {
		return InstallationConfig{}, errors.New("missing field `general`")
	}
	general := file.General
	switch {
	case general.MOTD == nil:
		return InstallationConfig{}, errors.New("general: missing field `motd`")
	case general.ServerPort == nil:
		return InstallationConfig{}, errors.New("general: missing field `server-port`")
	case general.MaxPlayers == nil:
		return InstallationConfig{}, errors.New("general: missing field `max-players`")
	}

	return InstallationConfig{
		MOTD:       string(*general.MOTD),
		ServerPort: *general.ServerPort,
		MaxPlayers: *general.MaxPlayers,
	}, nil
}
