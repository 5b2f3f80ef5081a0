package config

// Config is the top-level YAML structure.
type Config struct {
	Version  string       `yaml:"version"`
	Server   ServerConf   `yaml:"server"`
	Editor   EditorConf   `yaml:"editor"`
	Catalog  string       `yaml:"catalog"` // optional node catalog override
	Projects ProjectsConf `yaml:"projects"`
}

// ServerConf holds HTTP and session-loop settings.
type ServerConf struct {
	Addr             string `yaml:"addr"`
	QueueDepth       int    `yaml:"queue_depth"` // per-session command queue
	CommandTimeoutMs int    `yaml:"command_timeout_ms"`
	MaxSessions      int    `yaml:"max_sessions"`
}

// EditorConf holds per-session editor settings. Reloads apply to sessions
// created afterwards.
type EditorConf struct {
	DefaultNodeWidth  float64 `yaml:"default_node_width"`
	DefaultNodeHeight float64 `yaml:"default_node_height"`
	HistoryLimit      int     `yaml:"history_limit"` // 0 = unbounded
	ProjectName       string  `yaml:"project_name"`
}

// ProjectsConf selects where projects are saved.
type ProjectsConf struct {
	Backend    string `yaml:"backend"` // file | sqlite
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}
