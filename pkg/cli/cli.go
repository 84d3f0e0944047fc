package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Inputs    []string // 変換する .tja ファイルまたはディレクトリ（--dump 時は .bin ファイル）
	OutDir    string   // 出力ディレクトリ（空なら入力ファイルと同じ場所）
	SoulGauge string   // 魂ゲージ表（YAML）のパス
	Course    string   // 変換するコース（空なら全コース）
	Dump      bool     // フーメンを読み込んでYAMLで表示する
	LogLevel  string   // ログレベル（debug, info, warn, error）
	ShowHelp  bool     // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h":     true,
	"--h":    true,
	"-help":  true,
	"--help": true,
	"-dump":  true,
	"--dump": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("tja2fumen", flag.ContinueOnError)

	config := &Config{}

	fs.StringVar(&config.OutDir, "out-dir", "", "出力ディレクトリ")
	fs.StringVar(&config.OutDir, "o", "", "出力ディレクトリ（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.SoulGauge, "soulgauge", "", "魂ゲージ表（YAML）")
	fs.StringVar(&config.Course, "course", "", "変換するコース（例: Oni, HardP1）")
	fs.BoolVar(&config.Dump, "dump", false, "フーメンをYAMLで表示")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if config.SoulGauge == "" {
		config.SoulGauge = os.Getenv("TJA2FUMEN_SOULGAUGE")
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if config.Dump && config.OutDir != "" {
		return nil, fmt.Errorf("--dump prints to standard output and cannot be combined with --out-dir")
	}

	// 位置引数（入力ファイル）
	config.Inputs = fs.Args()

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -o=out のように値が含まれている場合と、ブール型フラグは次の引数を取らない
			if strings.Contains(arg, "=") || boolFlags[arg] {
				continue
			}
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `tja2fumen - TJA to fumen chart converter

Usage:
  tja2fumen [options] <input>...
  tja2fumen --dump <file.bin>...

Arguments:
  input         .tja ファイル、または .tja を含むディレクトリ
                コースごとに <名前>_<e|n|h|m|x>.bin を出力（P1/P2 は _1/_2 を付加）

Options:
  -o, --out-dir <dir>         出力ディレクトリ（デフォルト: 入力ファイルと同じ場所）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --soulgauge <file>          魂ゲージ表（YAML）
  --course <name>             指定したコースだけ変換（例: Oni, Ura, HardP1）
  --dump                      フーメンを読み込んでYAMLで表示
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  TJA2FUMEN_SOULGAUGE=<file>  魂ゲージ表（YAML）

Examples:
  tja2fumen song.tja                    song_m.bin などを出力
  tja2fumen -o out songs/               ディレクトリ内の全 .tja を変換
  tja2fumen --course Oni song.tja       おに のみ変換
  tja2fumen --dump song_m.bin           変換結果を確認
  LOG_LEVEL=debug tja2fumen song.tja    デバッグログを有効化
`)
}
