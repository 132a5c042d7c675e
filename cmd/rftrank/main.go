package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rftrank/internal"
	"rftrank/internal/config"
	"rftrank/internal/ingest"
	"rftrank/internal/ranking"
	"rftrank/internal/store"
	"rftrank/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := store.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	st := store.New()
	records, err := db.LoadSnapshot()
	must(err)
	st.Load(records)

	engine := ranking.NewEngine(st, ranking.NewRounder(cfg))

	cmd := os.Args[1]
	switch cmd {
	case "ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		srcType := fs.String("type", "", "parameter|extrusion|milling|quality")
		input := fs.String("input", "", "input file (xlsx/csv/xls/html)")
		format := fs.String("format", "", "override format sniffing: xlsx|csv|html")
		out := fs.String("out", "", "normalized csv output path (stdout if empty)")
		_ = fs.Parse(os.Args[2:])
		if *srcType == "" || *input == "" {
			must(fmt.Errorf("--type and --input are required"))
		}

		res := normalizeFile(cfg, internal.SourceType(*srcType), *input, *format)
		if *out == "" {
			must(ingest.WriteCSV(res.Table, os.Stdout))
		} else {
			f, err := os.Create(*out)
			must(err)
			must(ingest.WriteCSV(res.Table, f))
			must(f.Close())
		}
		fmt.Fprintf(os.Stderr, "normalized %s rows=%d dropped=%d\n", *srcType, res.Kept, res.Dropped)

	case "merge", "append":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		params := fs.String("params", "", "parameter table file")
		ext := fs.String("ext", "", "extrusion throughput table file")
		mill := fs.String("mill", "", "milling throughput table file")
		quality := fs.String("quality", "", "quality table file")
		_ = fs.Parse(os.Args[2:])
		if *params == "" || *ext == "" || *mill == "" || *quality == "" {
			must(fmt.Errorf("--params --ext --mill --quality are required"))
		}

		merger := ingest.NewMerger()
		merger.Stage(normalizeFile(cfg, internal.SourceParameter, *params, "").Table)
		merger.Stage(normalizeFile(cfg, internal.SourceExtrusion, *ext, "").Table)
		merger.Stage(normalizeFile(cfg, internal.SourceMilling, *mill, "").Table)
		merger.Stage(normalizeFile(cfg, internal.SourceQuality, *quality, "").Table)

		merged, err := merger.Merge()
		must(err)

		if cmd == "append" {
			st.Append(merged)
		} else {
			st.Load(merged)
		}
		must(db.SaveSnapshot(st.All()))
		must(db.SetMetadata("store.last_merge", time.Now().UTC().Format(time.RFC3339)))
		fmt.Printf("%s done merged=%d total=%d\n", cmd, len(merged), st.Count())

	case "rank":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		product := fs.String("product", "", "product code")
		_ = fs.Parse(os.Args[2:])
		if *product == "" {
			must(fmt.Errorf("--product is required"))
		}

		res, err := engine.Rank(*product)
		must(err)
		printJSON(res)

	case "rank:batch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		codes := fs.String("codes", "", "comma-separated product codes")
		_ = fs.Parse(os.Args[2:])
		if *codes == "" {
			must(fmt.Errorf("--codes is required"))
		}

		printJSON(engine.RankMany(splitCodes(*codes)))

	case "tables:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		product := fs.String("product", "", "optional product code filter")
		out := fs.String("out", "", "csv output path (stdout if empty)")
		_ = fs.Parse(os.Args[2:])

		var dump []internal.ProcessRecord
		if *product == "" {
			dump = st.All()
		} else {
			dump = st.FindByProduct(*product)
		}
		table := ingest.RecordsTable(dump)
		if *out == "" {
			must(ingest.WriteCSV(table, os.Stdout))
		} else {
			f, err := os.Create(*out)
			must(err)
			must(ingest.WriteCSV(table, f))
			must(f.Close())
		}
		fmt.Fprintf(os.Stderr, "exported %d records\n", len(dump))

	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		product := fs.String("product", "", "product code")
		out := fs.String("out", "", "output xlsx path (defaults to OUTPUT_DIR)")
		_ = fs.Parse(os.Args[2:])
		if *product == "" {
			must(fmt.Errorf("--product is required"))
		}

		code := strings.ToUpper(*product)
		path := *out
		if path == "" {
			path = filepath.Join(cfg.OutputDir, code+".xlsx")
		}
		res, err := engine.Rank(*product)
		must(err)
		must(ingest.ExportRecommendationXLSX(code, res, path))
		fmt.Printf("exported recommendation for %s to %s\n", code, path)

	case "sync":
		must(cfg.Require("UPSTREAM_API_BASE_URL", cfg.UpstreamAPIBaseURL))
		svc := upstream.NewSyncService(cfg, engine)
		resolved, err := svc.FetchAndRank(context.Background())
		must(err)
		printJSON(resolved)

	default:
		usage()
		os.Exit(1)
	}
}

func normalizeFile(cfg config.Config, source internal.SourceType, path, format string) ingest.NormalizeResult {
	var raw internal.RawTable
	var err error
	if format == "" {
		raw, err = ingest.ReadTableFile(path)
	} else {
		var blob []byte
		blob, err = os.ReadFile(path)
		if err == nil {
			raw, err = ingest.ReadTable(format, blob)
		}
	}
	must(err)
	res, err := ingest.Normalize(source, raw, cfg.ThroughputCeilingKg)
	must(err)
	return res
}

func splitCodes(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	must(enc.Encode(v))
}

func usage() {
	fmt.Println("usage: rftrank <command>")
	fmt.Println("commands:")
	fmt.Println("  ingest --type=parameter|extrusion|milling|quality --input=... [--format=xlsx|csv|html] [--out=...csv]")
	fmt.Println("  tables:export [--product=CODE] [--out=...csv]")
	fmt.Println("  merge --params=... --ext=... --mill=... --quality=...")
	fmt.Println("  append --params=... --ext=... --mill=... --quality=...")
	fmt.Println("  rank --product=CODE")
	fmt.Println("  rank:batch --codes=CODE1,CODE2")
	fmt.Println("  export:xlsx --product=CODE [--out=./out/result.xlsx]")
	fmt.Println("  sync")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
