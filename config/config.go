// Package config loads settings from flags, environment, and an optional
// config file through viper.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings is the materialized configuration for one run.
type Settings struct {
	// SpeechLang is the recognizer capture language tag.
	SpeechLang string
	// SourceLang and TargetLang are the translation pair (ISO 639-1).
	SourceLang string
	TargetLang string
	// VoiceLang is the voice-selection target; VoiceFallback the regional
	// fallback locale tried when no matching voice is installed.
	VoiceLang     string
	VoiceFallback string

	SentenceLimit int
	Terminators   string

	ASRURL        string
	ASRKey        string
	ASREncoding   string
	ASRSampleRate int

	MyMemoryURL   string
	MyMemoryEmail string
	LingvaURL     string

	ESpeakPath string
	HTTPPort   int
}

// SetDefaults registers every known key with its default value.
func SetDefaults() {
	viper.SetDefault("speech_lang", "kn-IN")
	viper.SetDefault("source_lang", "kn")
	viper.SetDefault("target_lang", "en")
	viper.SetDefault("voice_lang", "kn-IN")
	viper.SetDefault("voice_fallback", "hi-IN")

	viper.SetDefault("sentence_limit", 5)
	viper.SetDefault("sentence_terminators", ".!?…।॥")

	viper.SetDefault("asr_url", "")
	viper.SetDefault("asr_key", "")
	viper.SetDefault("asr_encoding", "linear16")
	viper.SetDefault("asr_sample_rate", 16000)

	viper.SetDefault("mymemory_url", "")
	viper.SetDefault("mymemory_email", "")
	viper.SetDefault("lingva_url", "")

	viper.SetDefault("espeak_path", "espeak-ng")
	viper.SetDefault("http_port", 8484)
}

// Init wires environment variables (DUBASHI_*) and the optional config.yaml
// in the working directory or ~/.config/dubashi.
func Init() {
	SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/dubashi")

	viper.SetEnvPrefix("dubashi")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}

// Load materializes the current viper state.
func Load() Settings {
	return Settings{
		SpeechLang:    viper.GetString("speech_lang"),
		SourceLang:    viper.GetString("source_lang"),
		TargetLang:    viper.GetString("target_lang"),
		VoiceLang:     viper.GetString("voice_lang"),
		VoiceFallback: viper.GetString("voice_fallback"),

		SentenceLimit: viper.GetInt("sentence_limit"),
		Terminators:   viper.GetString("sentence_terminators"),

		ASRURL:        viper.GetString("asr_url"),
		ASRKey:        viper.GetString("asr_key"),
		ASREncoding:   viper.GetString("asr_encoding"),
		ASRSampleRate: viper.GetInt("asr_sample_rate"),

		MyMemoryURL:   viper.GetString("mymemory_url"),
		MyMemoryEmail: viper.GetString("mymemory_email"),
		LingvaURL:     viper.GetString("lingva_url"),

		ESpeakPath: viper.GetString("espeak_path"),
		HTTPPort:   viper.GetInt("http_port"),
	}
}
