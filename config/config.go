// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// StorageConfig describes where uploaded artifacts and their metadata live.
type StorageConfig struct {
	Dir            string `mapstructure:"dir" validate:"required"`
	SqlitePath     string `mapstructure:"sqlite_path" validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" validate:"required,gt=0"`
}

// CaptureConfig holds the fixed capture session parameters. Bitrates are
// fixed configuration values, not negotiated with the encoder.
type CaptureConfig struct {
	MaxDurationSeconds int    `mapstructure:"max_duration_seconds" validate:"required,gt=0"`
	TimesliceMs        int    `mapstructure:"timeslice_ms" validate:"required,gt=0"`
	VideoBitsPerSecond int    `mapstructure:"video_bits_per_second" validate:"required,gt=0"`
	AudioBitsPerSecond int    `mapstructure:"audio_bits_per_second" validate:"required,gt=0"`
	Display            string `mapstructure:"display"`
	AudioSource        string `mapstructure:"audio_source"`
}

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path" validate:"required"`

	StorageConfig StorageConfig `mapstructure:"storage" validate:"required"`
	CaptureConfig CaptureConfig `mapstructure:"capture" validate:"required"`

	// RecorderHost is the base URL clients use to reach the recording service.
	RecorderHost string `mapstructure:"recorder_host" validate:"required"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env varaibles.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "recording-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "logs")

	v.SetDefault("RECORDER_HOST", "http://localhost:9090")

	v.SetDefault("STORAGE__DIR", "recordings")
	v.SetDefault("STORAGE__SQLITE_PATH", "recordings/recordings.db")
	v.SetDefault("STORAGE__MAX_UPLOAD_BYTES", 100*1024*1024)

	v.SetDefault("CAPTURE__MAX_DURATION_SECONDS", 180)
	v.SetDefault("CAPTURE__TIMESLICE_MS", 1000)
	v.SetDefault("CAPTURE__VIDEO_BITS_PER_SECOND", 2_500_000)
	v.SetDefault("CAPTURE__AUDIO_BITS_PER_SECOND", 128_000)
	v.SetDefault("CAPTURE__DISPLAY", ":0")
	v.SetDefault("CAPTURE__AUDIO_SOURCE", "default")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
