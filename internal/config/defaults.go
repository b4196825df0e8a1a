package config

const (
	defaultWorkDir             = "~/.local/share/coursemerge/work"
	defaultOutputDir           = "~/.local/share/coursemerge/output"
	defaultLogDir              = "~/.local/share/coursemerge/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMReferer          = "https://github.com/coursemerge/coursemerge"
	defaultLLMTitle            = "Coursemerge Describer"
	defaultLLMTimeoutSeconds   = 30
	defaultMaxSampleLength     = 1500
	defaultMaxFallbackFiles    = 5
	defaultMinExistingLength   = 30
	defaultItemDelayMS         = 500
	defaultNotifyRequestSecond = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Sampler: Sampler{
			MaxSampleLength:  defaultMaxSampleLength,
			MaxFallbackFiles: defaultMaxFallbackFiles,
		},
		Describe: Describe{
			MinExistingLength: defaultMinExistingLength,
			ItemDelayMS:       defaultItemDelayMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestSecond,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
