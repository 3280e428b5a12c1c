package hotpatch

import "github.com/spf13/viper"

// config is read from the environment:
//
//	HOTPATCH_LOG_LEVEL   zap level for the default logger, off when empty
//	HOTPATCH_LOG_DISASM  include disassembled trampolines in debug logs
type config struct {
	LogLevel  string
	LogDisasm bool
}

func loadConfig() config {
	v := viper.New()
	v.SetEnvPrefix("hotpatch")
	v.AutomaticEnv()
	v.SetDefault("log_level", "")
	v.SetDefault("log_disasm", false)

	return config{
		LogLevel:  v.GetString("log_level"),
		LogDisasm: v.GetBool("log_disasm"),
	}
}
