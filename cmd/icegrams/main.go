// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command icegrams is the thin, explicitly out-of-core CLI shim
// around the icegrams facade: build (TSV shard glob -> artifact),
// query (one-shot freq/prob/succ lookups), and serve (a small JSON
// HTTP endpoint). Grounded on the teacher's own cmd/cindex (one-shot
// builder invocation) and cmd/cserver (long-running query service),
// reshaped from flag-per-binary into urfave/cli/v2 subcommands the
// way standardbeagle-lci's cmd/lci/main.go structures its command
// tree.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mideind/icegrams/icegrams"
	"github.com/mideind/icegrams/internal/buildconfig"
	"github.com/mideind/icegrams/internal/ngram"
	"github.com/mideind/icegrams/internal/obslog"
	"github.com/mideind/icegrams/internal/tsvsource"
)

func main() {
	app := &cli.App{
		Name:  "icegrams",
		Usage: "build, query, and serve a compact mmap n-gram frequency store",
		Commands: []*cli.Command{
			buildCommand,
			queryCommand,
			serveCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "icegrams: %v\n", err)
		os.Exit(1)
	}
}

var buildCommand = &cli.Command{
	Name:  "build",
	Usage: "build an artifact from a TSV shard glob, per a TOML manifest",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Required: true, Usage: "path to the buildconfig TOML manifest"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log build progress at debug level"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := buildconfig.Load(c.String("config"))
		if err != nil {
			return err
		}
		logger := obslog.New(obslog.Options{Development: c.Bool("verbose")})
		defer logger.Sync()

		alphabet, err := ngram.NewAlphabet(cfg.Alphabet)
		if err != nil {
			return fmt.Errorf("alphabet: %w", err)
		}
		src, err := tsvsource.Open(cfg.InputBase, cfg.InputGlob)
		if err != nil {
			return fmt.Errorf("input glob: %w", err)
		}

		b := ngram.NewBuilder(alphabet, ngram.BuildOptions{
			AddAllBigrams: cfg.AddAllBigrams,
			EnableBloom:   cfg.EnableBloom,
			Logger:        logger,
		})
		if err := b.ReadTSV(src); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		if err := b.WriteFile(cfg.OutputPath); err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}
		fmt.Printf("wrote %s\n", cfg.OutputPath)
		return nil
	},
}

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "one-shot freq/prob/succ lookup against an artifact",
	ArgsUsage: "<freq|adjfreq|prob|logprob|succ|contains> token...",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "artifact", Aliases: []string{"a"}, Required: true, Usage: "path to the artifact file"},
		&cli.StringFlag{Name: "alphabet", Required: true, Usage: "the alphabet the artifact was built with"},
		&cli.IntFlag{Name: "k", Value: 10, Usage: "number of successors to return for succ"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.Exit("usage: icegrams query <freq|adjfreq|prob|logprob|succ|contains> token...", 2)
		}
		n, err := icegrams.Open(c.String("artifact"), icegrams.Options{Alphabet: c.String("alphabet")})
		if err != nil {
			return err
		}
		defer n.Close()

		op := c.Args().Get(0)
		tokens := c.Args().Slice()[1:]
		switch op {
		case "freq":
			fmt.Println(n.Freq(tokens...))
		case "adjfreq":
			fmt.Println(n.AdjFreq(tokens...))
		case "prob":
			fmt.Println(n.Prob(tokens...))
		case "logprob":
			fmt.Println(n.LogProb(tokens...))
		case "contains":
			if len(tokens) != 1 {
				return cli.Exit("contains takes exactly one token", 2)
			}
			fmt.Println(n.Contains(tokens[0]))
		case "succ":
			for _, s := range n.Succ(c.Int("k"), tokens...) {
				fmt.Printf("%s\t%g\n", s.Token, s.LogProb)
			}
		default:
			return cli.Exit(fmt.Sprintf("unknown query op %q", op), 2)
		}
		return nil
	},
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "serve the query API as JSON over HTTP",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "artifact", Aliases: []string{"a"}, Required: true, Usage: "path to the artifact file"},
		&cli.StringFlag{Name: "alphabet", Required: true, Usage: "the alphabet the artifact was built with"},
		&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "listen address"},
		&cli.BoolFlag{Name: "watch", Usage: "hot-reload the artifact on rebuild via fsnotify"},
	},
	Action: func(c *cli.Context) error {
		n, err := icegrams.Open(c.String("artifact"), icegrams.Options{
			Alphabet: c.String("alphabet"),
			Watch:    c.Bool("watch"),
		})
		if err != nil {
			return err
		}
		defer n.Close()

		mux := http.NewServeMux()
		mux.HandleFunc("/query", queryHandler(n))
		return http.ListenAndServe(c.String("addr"), mux)
	},
}

// queryHandler answers GET /query?op=freq&t=hestur&t=er&t=dýr&k=10 with
// a small JSON body, the same query ops as the query command.
func queryHandler(n *icegrams.Ngrams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		tokens := q["t"]
		op := q.Get("op")

		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		switch op {
		case "freq":
			enc.Encode(map[string]uint64{"freq": n.Freq(tokens...)})
		case "adjfreq":
			enc.Encode(map[string]uint64{"adj_freq": n.AdjFreq(tokens...)})
		case "prob":
			enc.Encode(map[string]float64{"prob": n.Prob(tokens...)})
		case "logprob":
			enc.Encode(map[string]float64{"logprob": n.LogProb(tokens...)})
		case "contains":
			enc.Encode(map[string]bool{"contains": len(tokens) == 1 && n.Contains(tokens[0])})
		case "succ":
			k := 10
			if ks := q.Get("k"); ks != "" {
				if parsed, err := strconv.Atoi(ks); err == nil {
					k = parsed
				}
			}
			enc.Encode(n.Succ(k, tokens...))
		default:
			http.Error(w, fmt.Sprintf("unknown op %q; want one of freq, adjfreq, prob, logprob, contains, succ", op), http.StatusBadRequest)
		}
	}
}
