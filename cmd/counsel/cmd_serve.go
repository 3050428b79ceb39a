package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"counsel/adapters/store"
	"counsel/internal/extract"
	"counsel/internal/logging"
	"counsel/internal/server"
)

var serveFlags struct {
	db        string
	listen    string
	useOpenAI bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.db, "db", store.DefaultDBPath, "Store DB path")
	f.StringVar(&serveFlags.listen, "listen", ":8080", "Listen address")
	f.BoolVar(&serveFlags.useOpenAI, "openai-extract", false, "Propose signals from text via OpenAI (needs OPENAI_API_KEY)")
}

func runServe(_ *cobra.Command, _ []string) error {
	st, err := store.Open(serveFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var ex extract.SignalExtractor
	if serveFlags.useOpenAI {
		oe, err := extract.NewOpenAIExtractor(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))
		if err != nil {
			return fmt.Errorf("openai extractor: %w", err)
		}
		ex = oe
	}

	srv := server.New(server.Config{
		ListenAddr: serveFlags.listen,
		Store:      st,
		Extractor:  ex,
	})
	logging.New("serve").Info("starting HTTP API", "addr", serveFlags.listen, "db", serveFlags.db)
	return srv.HTTPServer().ListenAndServe()
}
