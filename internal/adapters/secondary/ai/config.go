package ai

// Config конфигурация AI-провайдера
type Config struct {
	ApiKey         string `envconfig:"API_KEY"`
	Model          string `envconfig:"MODEL" default:"gpt-4o"`
	MaxTokens      int    `envconfig:"MAX_TOKENS" default:"800"`
	TimeoutSeconds int    `envconfig:"TIMEOUT_SECONDS" default:"60"`
}
