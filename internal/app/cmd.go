package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandTrack は対話式の応募管理メニューを起動することを示す。
	CommandTrack Command = "track"
	// CommandMerge は企業一覧CSVの統合を実行することを示す。
	CommandMerge Command = "merge"
	// CommandScrape は求人ページからリンク候補を抽出することを示す。
	CommandScrape Command = "scrape"
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandTrackを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandTrack
	}

	switch args[0] {
	case "track":
		return CommandTrack
	case "merge":
		return CommandMerge
	case "scrape":
		return CommandScrape
	case "serve":
		return CommandServe
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandTrack
	}
}

// commandArgs はサブコマンド名を除いた残りの引数を返す。
func commandArgs(args []string) []string {
	if len(args) == 0 || Command(args[0]) != ParseCommand(args) {
		return nil
	}
	return args[1:]
}
