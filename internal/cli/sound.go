package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"focusbar/internal/model"
	"focusbar/internal/sound"

	"github.com/spf13/cobra"
)

func newSoundCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sound",
		Short: "Configure the alarm sound",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			return writeOut(cmd, app, map[string]any{"data": ctl.State().UI.Sound})
		},
	}

	// set replaces the sound preferences through fn and prints the result.
	set := func(cmd *cobra.Command, fn func(model.Sound) (model.Sound, error)) error {
		ctl, err := loadController(cmd, app)
		if err != nil {
			return writeErr(cmd, err)
		}
		defer closeController(ctl)
		s, err := fn(ctl.State().UI.Sound)
		if err != nil {
			return writeResult(cmd, app, ctl.State().UI.Sound, err)
		}
		doc, err := ctl.SetSound(s)
		return writeResult(cmd, app, doc.UI.Sound, err)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <file>",
		Short: "Use an audio file (mp3, m4a, wav, aac) as the alarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := sound.ReadAudioFile(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return set(cmd, func(s model.Sound) (model.Sound, error) {
				s.Path, s.Name, s.Enabled = args[0], "", true
				return s, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pick",
		Short: "Choose the alarm file with the system file dialog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			picker := app.Picker
			if picker == nil {
				picker = sound.DialogPicker{}
			}
			return set(cmd, func(s model.Sound) (model.Sound, error) {
				ctx := cmd.Context()
				if ctx == nil {
					ctx = context.Background()
				}
				path, err := picker.PickAudioFile(ctx)
				if err != nil {
					return s, err
				}
				if _, err := picker.ReadFile(path); err != nil {
					return s, err
				}
				s.Path, s.Name, s.Enabled = path, "", true
				return s, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the custom file and use the built-in tone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return set(cmd, func(s model.Sound) (model.Sound, error) {
				s.Path, s.Name = "", ""
				return s, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "on",
		Short: "Unmute the alarm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return set(cmd, func(s model.Sound) (model.Sound, error) {
				s.Enabled = true
				return s, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "off",
		Short: "Mute the alarm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return set(cmd, func(s model.Sound) (model.Sound, error) {
				s.Enabled = false
				return s, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "volume <0..1>",
		Short: "Set the alarm volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid volume: %q", args[0]))
			}
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc, err := ctl.SetVolume(v)
			return writeResult(cmd, app, doc.UI.Sound, err)
		},
	})

	cmd.AddCommand(newSoundTestCmd(app))
	return cmd
}

func newSoundTestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Play the alarm once (custom file, else the built-in tone)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			s := ctl.State().UI.Sound

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p := player(app)
			p.SetVolume(s.Volume)
			src := sound.FallbackTone()
			if s.Path != "" {
				src = sound.Source{Path: s.Path}
			}
			usedTone := s.Path == ""
			if err := p.Play(ctx, src); err != nil {
				logger(cmd, app).Warn("sound: custom file failed; trying tone", "err", err)
				if usedTone {
					return writeErr(cmd, err)
				}
				if err := p.Play(ctx, sound.FallbackTone()); err != nil {
					return writeErr(cmd, err)
				}
				usedTone = true
			}
			waitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			if ep, ok := p.(*sound.ExecPlayer); ok {
				_ = ep.Wait(waitCtx)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"played":   true,
				"usedTone": usedTone,
				"volume":   s.Volume,
				"muted":    !s.Enabled,
			}})
		},
	}
}
