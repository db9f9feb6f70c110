package conf

type Bootstrap struct {
	Server *Server
	Radar  *Radar
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

// Radar 分析服务配置，结构与 trend_radar 的 config.yaml 一致
type Radar struct {
	Ai          *AI          `json:"ai"`
	Report      *Report      `json:"report"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	Db          *DB          `json:"db"`
}

type AI struct {
	ApiKey     string `json:"api_key"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	BaseUrl    string `json:"base_url"`
	Timeout    int32  `json:"timeout"`
	MaxNews    int32  `json:"max_news_for_analysis"`
	IncludeRss *bool  `json:"include_rss"`
	PromptFile string `json:"prompt_file"`
}

type Report struct {
	Mode      string   `json:"mode"`
	Type      string   `json:"type"`
	Platforms []string `json:"platforms"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type DB struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
