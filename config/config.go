package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Data     DataConfig     `yaml:"data"`
	Proposal ProposalConfig `yaml:"proposal"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type LLMConfig struct {
	APIURL      string        `yaml:"api_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	// RemoteChatURL 非空时不直接调用模型，而是转发到另一个实例的 /api/chat
	RemoteChatURL string `yaml:"remote_chat_url"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

// ProposalConfig 提案相关配置
type ProposalConfig struct {
	CompanyName     string `yaml:"company_name"`
	PreparedBy      string `yaml:"prepared_by"`
	AccentColor     string `yaml:"accent_color"`
	ListLimit       int    `yaml:"list_limit"`
	AutosaveWorkers int    `yaml:"autosave_workers"`
	Watermark       string `yaml:"watermark"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/proposals.db",
		},
		LLM: LLMConfig{
			APIURL:      "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Proposal: ProposalConfig{
			CompanyName:     "ArgosMob Tech & AI Pvt. Ltd.",
			PreparedBy:      "Team Argos Mob",
			AccentColor:     "#E85D2B",
			ListLimit:       20,
			AutosaveWorkers: 4,
			Watermark:       "ARGOS MOB",
		},
	}
}

func loadConfig() *Config {
	config := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			klog.Warningf("解析配置文件失败: path=%s, error=%v", configPath, err)
		}
	}

	// .env 可选
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		klog.V(6).Infof("加载 .env 失败: %v", err)
	}

	applyEnv(config)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	// 兼容 Groq 的变量名
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" && config.LLM.APIKey == "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.APIURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}
	if remote := os.Getenv("REMOTE_CHAT_URL"); remote != "" {
		config.LLM.RemoteChatURL = remote
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}

	if v := os.Getenv("PROPOSAL_LIST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Proposal.ListLimit = n
		}
	}
	if v := os.Getenv("AUTOSAVE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Proposal.AutosaveWorkers = n
		}
	}
	if v := os.Getenv("PROPOSAL_PREPARED_BY"); v != "" {
		config.Proposal.PreparedBy = v
	}
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
