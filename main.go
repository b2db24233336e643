package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dubashi.dev/asr"
	"dubashi.dev/config"
	"dubashi.dev/session"
	"dubashi.dev/speech"
	"dubashi.dev/translate"
	"dubashi.dev/tui"
	"dubashi.dev/web"
)

var logger *log.Logger

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("asr-url", "", "Streaming recognition endpoint")
	rootCmd.PersistentFlags().String("asr-key", "", "Streaming recognition API key")
	rootCmd.PersistentFlags().String("audio", "-", "Audio source path (\"-\" for stdin)")
	rootCmd.PersistentFlags().Int("sentence-limit", 5, "Stop capture after this many sentences")
	rootCmd.PersistentFlags().String("mymemory-email", "", "Contact email for the MyMemory API")
	rootCmd.PersistentFlags().String("lingva-url", "", "Lingva instance URL")

	viper.BindPFlag("asr_url", rootCmd.PersistentFlags().Lookup("asr-url"))
	viper.BindPFlag("asr_key", rootCmd.PersistentFlags().Lookup("asr-key"))
	viper.BindPFlag("audio", rootCmd.PersistentFlags().Lookup("audio"))
	viper.BindPFlag("sentence_limit", rootCmd.PersistentFlags().Lookup("sentence-limit"))
	viper.BindPFlag("mymemory_email", rootCmd.PersistentFlags().Lookup("mymemory-email"))
	viper.BindPFlag("lingva_url", rootCmd.PersistentFlags().Lookup("lingva-url"))

	serveCmd.Flags().IntP("port", "p", 8484, "Port for the control API")
	viper.BindPFlag("http_port", serveCmd.Flags().Lookup("port"))

	translateCmd.Flags().String("from", "kn", "Source language")
	translateCmd.Flags().String("to", "en", "Target language")

	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(converseCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	config.Init()
	logger = log.New(os.Stderr)
}

var rootCmd = &cobra.Command{
	Use:   "dubashi",
	Short: "Dubashi is a voice interpreter between Kannada and English",
	Long: `Dubashi captures continuous Kannada speech, shows the transcript as it
grows, translates it to English, translates your typed reply back to
Kannada, and speaks it out loud.`,
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run an interactive capture session in the terminal",
	RunE:  runListen,
}

var converseCmd = &cobra.Command{
	Use:   "converse",
	Short: "Run capture-and-respond exchanges in line mode",
	RunE:  runConverse,
}

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text through the provider cascade",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTranslate,
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List installed synthesizer voices",
	RunE:  runVoices,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session control API over HTTP",
	RunE:  runServe,
}

func buildRecognizer(settings config.Settings) (asr.Recognizer, error) {
	if settings.ASRKey == "" && settings.ASRURL == "" {
		return nil, nil
	}

	var audio io.Reader
	switch path := viper.GetString("audio"); path {
	case "", "-":
		audio = os.Stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio source: %w", err)
		}
		audio = f
	}

	return asr.NewStream(asr.StreamOptions{
		URL:        settings.ASRURL,
		APIKey:     settings.ASRKey,
		Language:   settings.SpeechLang,
		Encoding:   settings.ASREncoding,
		SampleRate: settings.ASRSampleRate,
		Audio:      audio,
	}, logger), nil
}

func buildTranslator(settings config.Settings) *translate.Cascade {
	return translate.NewCascade(
		translate.NewMyMemory(settings.MyMemoryURL, settings.MyMemoryEmail),
		translate.NewLingva(settings.LingvaURL),
		logger,
	)
}

func buildSpeaker(settings config.Settings) *speech.Sequencer {
	var synth speech.Synthesizer
	if engine, err := speech.NewESpeak(settings.ESpeakPath, logger); err == nil {
		synth = engine
	} else {
		logger.Warn("speech synthesis unavailable", "error", err)
	}
	return speech.NewSequencer(synth, settings.VoiceLang, settings.VoiceFallback, logger)
}

func buildController(settings config.Settings) (*session.Controller, error) {
	rec, err := buildRecognizer(settings)
	if err != nil {
		return nil, err
	}
	return session.NewController(
		rec,
		buildTranslator(settings),
		buildSpeaker(settings),
		session.Config{
			SourceLang:    settings.SourceLang,
			TargetLang:    settings.TargetLang,
			Terminators:   settings.Terminators,
			SentenceLimit: settings.SentenceLimit,
		},
		logger,
	), nil
}

func runListen(cmd *cobra.Command, args []string) error {
	ctrl, err := buildController(config.Load())
	if err != nil {
		return err
	}
	return tui.Run(ctrl)
}

func runConverse(cmd *cobra.Command, args []string) error {
	settings := config.Load()
	ctrl, err := buildController(settings)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	for {
		if err := ctrl.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("Listening (up to %d sentences)...\n", settings.SentenceLimit)

		waitForCapture(ctrl)
		fmt.Printf("\nHeard: %s\n", ctrl.Snapshot().Committed)

		english, err := ctrl.TranslateTranscript(ctx)
		if err != nil {
			fmt.Println(ctrl.Snapshot().Status)
		} else {
			fmt.Printf("In English: %s\n", english)
		}

		var reply string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Your reply (English)").
				Value(&reply),
		))
		if err := form.Run(); err != nil {
			return err
		}

		if strings.TrimSpace(reply) != "" {
			kannada, err := ctrl.TranslateReply(ctx, reply)
			if err != nil {
				fmt.Println(ctrl.Snapshot().Status)
			} else {
				fmt.Printf("In Kannada: %s\n", kannada)
				if err := ctrl.SpeakReply(ctx); err != nil {
					fmt.Println(ctrl.Snapshot().Status)
				}
			}
		}

		var again bool
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title("Another exchange?").Value(&again),
		))
		if err := confirm.Run(); err != nil {
			return err
		}
		if !again {
			ctrl.Reset()
			return nil
		}
		ctrl.Reset()
	}
}

// waitForCapture blocks until the session leaves the listening state,
// echoing the transcript preview as it grows.
func waitForCapture(ctrl *session.Controller) {
	last := ""
	for {
		snap := ctrl.Snapshot()
		if preview := snap.Preview; preview != last {
			fmt.Printf("\r%s", preview)
			last = preview
		}
		if snap.State != session.StateListening {
			return
		}
		<-ctrl.Updates()
	}
}

func runTranslate(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	out, err := buildTranslator(config.Load()).Translate(cmd.Context(), translate.Request{
		Text:   strings.Join(args, " "),
		Source: from,
		Target: to,
	})
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runVoices(cmd *cobra.Command, args []string) error {
	settings := config.Load()
	engine, err := speech.NewESpeak(settings.ESpeakPath, logger)
	if err != nil {
		return err
	}

	voices, err := engine.Voices(cmd.Context())
	if err != nil {
		return err
	}
	selected := speech.SelectVoice(voices, settings.VoiceLang, settings.VoiceFallback)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Voice", "Language", ""})
	for _, v := range voices {
		mark := ""
		if selected != nil && *selected == v {
			mark = "selected"
		}
		table.Append([]string{v.Name, v.Lang, mark})
	}
	table.Render()
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings := config.Load()
	ctrl, err := buildController(settings)
	if err != nil {
		return err
	}
	return web.Serve(settings.HTTPPort, ctrl)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal("fatal", "error", err)
	}
}
