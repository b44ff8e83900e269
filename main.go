package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"rifflynx/config"
	"rifflynx/midi"
)

var version = "dev"

type flags struct {
	configPath string
	noAudio    bool
	noTUI      bool
	speechCmd  string
	soundFont  string
	model      string
	provider   string
	listen     string
	palette    string
	debug      bool
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:     "rifflynx",
		Short:   "A voice-driven music assistant that listens to your MIDI keyboard",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default ~/.config/rifflynx/config.json)")
	root.Flags().BoolVar(&f.noAudio, "no-audio", false, "do not open the audio device")
	root.Flags().BoolVar(&f.noTUI, "no-tui", false, "headless: read transcripts from stdin and print replies")
	root.Flags().StringVar(&f.speechCmd, "speech-cmd", "", "speech-to-text command printing one transcript per line")
	root.Flags().StringVar(&f.soundFont, "soundfont", "", "SoundFont (.sf2) used for sound")
	root.Flags().StringVar(&f.model, "model", "", "reasoning model")
	root.Flags().StringVar(&f.provider, "provider", "", "reasoning provider (gemini, openai)")
	root.Flags().StringVar(&f.listen, "listen", "", "serve the local control API on this address, e.g. 127.0.0.1:7070")
	root.Flags().StringVar(&f.palette, "palette", "plasma.gpl", "GIMP palette for the interface")
	root.Flags().BoolVar(&f.debug, "debug", false, "write a debug log to ~/.config/rifflynx/debug.log")

	root.AddCommand(devicesCmd(&f), configCmd(&f))
	return root
}

func devicesCmd(f *flags) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List MIDI inputs and how they would be used",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*f)
			if err != nil {
				return err
			}
			ports, err := midi.ScanPorts(cmd.Context(), cfg.MIDI.ExcludedPorts)
			if err != nil {
				return fmt.Errorf("scan ports: %w", err)
			}
			if len(ports) == 0 {
				fmt.Println(midi.NoDevicesStatus)
				return nil
			}
			for _, p := range ports {
				fmt.Printf("%-40s %s\n", p.Name, p.Type)
				if save && p.Type != midi.ControllerUnknown && cfg.FindController(p.Name) == nil {
					cfg.AddController(controllerConfig(p))
				}
			}
			if save {
				return saveConfig(cfg, f.configPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "remember the detected ports in the config file")
	return cmd
}

// controllerConfig is the config entry for a newly seen port
func controllerConfig(p midi.PortInfo) config.ControllerConfig {
	cc := config.ControllerConfig{PortName: p.Name, Type: config.ControllerKeyboard, AutoConnect: true}
	if p.Type == midi.ControllerLaunchpad {
		cc.Type = config.ControllerLaunchpadX
		cc.BaseNote = 48
	}
	return cc
}

func configCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Write the effective configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*f)
			if err != nil {
				return err
			}
			return saveConfig(cfg, f.configPath)
		},
	}
}

func saveConfig(cfg *config.Config, path string) error {
	var err error
	if path == "" {
		err = cfg.Save()
		path, _ = config.ConfigPath()
	} else {
		err = cfg.SaveTo(path)
	}
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println("Wrote", path)
	return nil
}

// loadConfig reads the config file, then environment, then flags
func loadConfig(f flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv()

	if f.noAudio {
		cfg.Audio.Enabled = false
	}
	if f.soundFont != "" {
		cfg.Audio.SoundFont = f.soundFont
	}
	if f.speechCmd != "" {
		cfg.Speech.Command = strings.Fields(f.speechCmd)
	}
	if f.model != "" {
		cfg.Assistant.Model = f.model
	}
	if f.provider != "" {
		cfg.Assistant.Provider = f.provider
	}
	if f.listen != "" {
		cfg.Remote.Listen = f.listen
	}
	return cfg, nil
}

