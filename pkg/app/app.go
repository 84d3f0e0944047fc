package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zurustar/tja2fumen/pkg/cli"
	"github.com/zurustar/tja2fumen/pkg/convert"
	"github.com/zurustar/tja2fumen/pkg/fileutil"
	"github.com/zurustar/tja2fumen/pkg/fumen"
	"github.com/zurustar/tja2fumen/pkg/logger"
	"github.com/zurustar/tja2fumen/pkg/soulgauge"
	"github.com/zurustar/tja2fumen/pkg/source"
	"github.com/zurustar/tja2fumen/pkg/tja"
)

// SoulGaugeFileName は入力ファイルと同じディレクトリから自動で探す魂ゲージ表の名前
const SoulGaugeFileName = "soulgauge.yaml"

// courseSuffixes は出力ファイル名に付ける難易度の記号
var courseSuffixes = map[tja.Difficulty]string{
	tja.DifficultyEasy:   "e",
	tja.DifficultyNormal: "n",
	tja.DifficultyHard:   "h",
	tja.DifficultyOni:    "m",
	tja.DifficultyUra:    "x",
}

// OutputName はコースの出力ファイル名を返す（例: song_m.bin, song_h_1.bin）
func OutputName(base string, id tja.CourseID) string {
	name := base + "_" + courseSuffixes[id.Difficulty]
	switch id.Player {
	case tja.PlayerOne:
		name += "_1"
	case tja.PlayerTwo:
		name += "_2"
	}
	return name + ".bin"
}

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	stdout io.Writer
	gauge  *soulgauge.Table // --soulgauge で指定された表
}

// Option configures an Application.
type Option func(*Application)

// WithOutput は --dump の出力先を差し替える
func WithOutput(w io.Writer) Option {
	return func(app *Application) {
		app.stdout = w
	}
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{stdout: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if len(app.config.Inputs) == 0 {
		cli.PrintHelp()
		return fmt.Errorf("no input files")
	}

	if app.config.Dump {
		return app.dumpAll()
	}

	// 3. 魂ゲージ表の読み込み
	if app.config.SoulGauge != "" {
		table, err := soulgauge.Load(app.config.SoulGauge)
		if err != nil {
			return fmt.Errorf("failed to load soul gauge table: %w", err)
		}
		app.gauge = table
		app.log.Info("Soul gauge table loaded", "path", app.config.SoulGauge, "tables", len(table.Groups))
	}

	// 4. 変換
	return app.convertAll()
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// convertAll はすべての入力を変換する。
// 失敗したコースがあっても残りのコースは変換を続け、最後にまとめてエラーを返す。
func (app *Application) convertAll() error {
	var files []string
	for _, input := range app.config.Inputs {
		found, err := source.Find(input)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}

	failed := 0
	written := 0
	for _, path := range files {
		n, errs := app.convertFile(path)
		written += n
		for _, err := range errs {
			app.log.Error("Conversion failed", "file", path, "error", err)
		}
		failed += len(errs)
	}

	app.log.Info("Conversion finished", "files", len(files), "written", written, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d course(s) failed to convert", failed)
	}
	return nil
}

// convertFile は1つの .tja ファイルの全コースを変換し、書き出したファイル数とエラーを返す
func (app *Application) convertFile(path string) (int, []error) {
	src, err := source.Load(path)
	if err != nil {
		return 0, []error{err}
	}
	app.log.Debug("Source loaded", "file", path, "encoding", src.Encoding)

	song, err := tja.Parse(src.Text, tja.WithLogger(app.log))
	if err != nil {
		return 0, []error{err}
	}

	conv := convert.New(app.converterOptions(filepath.Dir(path))...)

	outDir := app.config.OutDir
	if outDir == "" {
		outDir = filepath.Dir(path)
	}

	written := 0
	var errs []error
	for _, c := range song.Courses {
		if !app.selected(c) {
			continue
		}
		out := filepath.Join(outDir, OutputName(src.BaseName(), c.ID))
		if err := app.convertCourse(conv, song, c, out); err != nil {
			errs = append(errs, fmt.Errorf("course %s: %w", c.Name(), err))
			continue
		}
		written++
		app.log.Info("Course converted", "course", c.ID.String(), "output", out)
	}
	return written, errs
}

func (app *Application) convertCourse(conv *convert.Converter, song *tja.Song, c *tja.Course, out string) error {
	chart, err := song.Assemble(c)
	if err != nil {
		return err
	}
	compiled, err := conv.Convert(chart)
	if err != nil {
		return err
	}
	data, err := compiled.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode fumen: %w", err)
	}
	return fileutil.WriteBytes(out, data)
}

// converterOptions は --soulgauge の表、なければ dir にある soulgauge.yaml を使う
func (app *Application) converterOptions(dir string) []convert.Option {
	opts := []convert.Option{convert.WithLogger(app.log)}
	if app.gauge != nil {
		return append(opts, convert.WithSoulGauge(app.gauge))
	}

	path, err := fileutil.FindFileCaseInsensitive(dir, SoulGaugeFileName)
	if err != nil {
		return opts
	}
	table, err := soulgauge.Load(path)
	if err != nil {
		app.log.Warn("Ignoring invalid soul gauge table", "path", path, "error", err)
		return opts
	}
	app.log.Debug("Soul gauge table found", "path", path)
	return append(opts, convert.WithSoulGauge(table))
}

// selected は --course の指定に一致するか。
// "Oni" のような難易度だけの指定は P1/P2 も含む。
func (app *Application) selected(c *tja.Course) bool {
	filter := app.config.Course
	if filter == "" || strings.EqualFold(filter, c.Name()) {
		return true
	}
	if c.Rejected() {
		return false
	}
	d, err := tja.ParseDifficulty(filter)
	return err == nil && d == c.ID.Difficulty
}

// dumpAll はフーメンを読み込んでYAMLで表示する
func (app *Application) dumpAll() error {
	for i, path := range app.config.Inputs {
		chart, err := fumen.ReadFile(path, fumen.WithLogger(app.log))
		if err != nil {
			return fmt.Errorf("failed to read fumen: %w", err)
		}
		if i > 0 {
			fmt.Fprintln(app.stdout, "---")
		}
		fmt.Fprintf(app.stdout, "# %s\n", path)
		if err := chart.Dump(app.stdout); err != nil {
			return err
		}
	}
	return nil
}
