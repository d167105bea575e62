// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/rapidaai/recorder/config"
	"github.com/rapidaai/recorder/pkg/capture"
	"github.com/rapidaai/recorder/pkg/capture/ffmpeg"
	recording_client "github.com/rapidaai/recorder/pkg/clients/recording"
	"github.com/rapidaai/recorder/pkg/commons"
	"github.com/spf13/cobra"
)

type dependencies struct {
	cfg    *config.AppConfig
	logger commons.Logger
	client recording_client.RecordingServiceClient
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	vConfig, err := config.InitConfig()
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := commons.NewApplicationLogger(
		commons.Name("recorder-cli"),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	deps := &dependencies{
		cfg:    cfg,
		logger: logger,
		client: recording_client.NewRecordingServiceClient(cfg, logger),
	}
	return newRootCmd(deps).Execute()
}

func newRootCmd(deps *dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recorder",
		Short: "Capture the screen and store recordings",
		Long:  "Capture the screen (and microphone) with ffmpeg, preview the result locally, and upload it to the recording service.",
	}
	rootCmd.Version = deps.cfg.Version

	rootCmd.AddCommand(newRecordCmd(deps))
	rootCmd.AddCommand(newListCmd(deps))
	rootCmd.AddCommand(newFetchCmd(deps))
	rootCmd.AddCommand(newDoctorCmd(deps))
	return rootCmd
}

func captureConfig(cfg *config.AppConfig) capture.Config {
	c := capture.DefaultConfig()
	c.MaxDuration = time.Duration(cfg.CaptureConfig.MaxDurationSeconds) * time.Second
	c.Timeslice = time.Duration(cfg.CaptureConfig.TimesliceMs) * time.Millisecond
	c.VideoBitsPerSecond = cfg.CaptureConfig.VideoBitsPerSecond
	c.AudioBitsPerSecond = cfg.CaptureConfig.AudioBitsPerSecond
	return c
}

func newRecordCmd(deps *dependencies) *cobra.Command {
	var output string
	var keepLocal bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the screen until Ctrl+C or the duration ceiling",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller := capture.NewController(
				deps.logger,
				ffmpeg.NewDevices(deps.logger, deps.cfg.CaptureConfig.Display, deps.cfg.CaptureConfig.AudioSource),
				ffmpeg.NewFactory(deps.logger),
				captureConfig(deps.cfg),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := controller.Start(ctx); err != nil {
				return err
			}
			fmt.Println("recording... press Ctrl+C to stop")

			// Either the user interrupts or the session stops on its own
			// (duration ceiling, screen share ended).
			if err := controller.Wait(ctx); err != nil {
				if stopErr := controller.Stop(); stopErr != nil && !errors.Is(stopErr, capture.ErrNoActiveSession) {
					return stopErr
				}
				flushCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := controller.Wait(flushCtx); err != nil {
					return fmt.Errorf("finalizing recording: %w", err)
				}
			}
			if controller.State() == capture.StateFailed {
				return controller.Err()
			}

			artifact, err := controller.Artifact()
			if err != nil {
				return err
			}
			fmt.Printf("captured %d bytes (%s) in %ds\n", artifact.Size(), artifact.MimeType, controller.Elapsed())

			if output != "" {
				if err := os.WriteFile(output, artifact.Data, 0o644); err != nil {
					return fmt.Errorf("saving recording: %w", err)
				}
				fmt.Printf("saved to %s\n", output)
				if keepLocal {
					return nil
				}
			}

			recordingId, err := deps.client.Submit(context.Background(), artifact)
			if err != nil {
				// The artifact stays intact; the user can retry with --output.
				return fmt.Errorf("upload failed, recording kept in memory only: %w", err)
			}
			fmt.Printf("uploaded as recording %d\n", recordingId)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Also save the recording to this file")
	cmd.Flags().BoolVar(&keepLocal, "local", false, "Skip the upload (requires --output)")
	return cmd
}

func newListCmd(deps *dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored recordings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			recordings, err := deps.client.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(recordings) == 0 {
				fmt.Println("no recordings stored")
				return nil
			}
			for _, rec := range recordings {
				fmt.Printf("%6d  %-42s  %10d bytes  %s\n",
					rec.Id, rec.Filename, rec.Size, rec.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newFetchCmd(deps *dependencies) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <id>",
		Short: "Download a stored recording by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var recordingId uint64
			if _, err := fmt.Sscanf(args[0], "%d", &recordingId); err != nil {
				return fmt.Errorf("invalid recording id %q", args[0])
			}
			if output == "" {
				output = fmt.Sprintf("recording-%d.webm", recordingId)
			}
			body, err := deps.client.Fetch(cmd.Context(), recordingId)
			if err != nil {
				return err
			}
			defer body.Close()

			file, err := os.Create(output)
			if err != nil {
				return err
			}
			defer file.Close()
			written, err := io.Copy(file, body)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d bytes to %s\n", written, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file")
	return cmd
}

func newDoctorCmd(deps *dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check capture prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := exec.LookPath("ffmpeg"); err != nil {
				return fmt.Errorf("ffmpeg not found on PATH")
			}
			fmt.Println("ffmpeg: ok")
			if deps.cfg.CaptureConfig.Display == "" {
				return fmt.Errorf("no capture display configured")
			}
			fmt.Printf("display: %s\n", deps.cfg.CaptureConfig.Display)
			fmt.Printf("service: %s\n", deps.cfg.RecorderHost)
			return nil
		},
	}
}
