package app

// Command はbelugaの起動モード。
type Command string

const (
	// CommandServe はAPIサーバー。引数なしの既定値。
	CommandServe Command = "serve"
	// CommandWorker は期限切れログインセッションを日次で削除する。
	CommandWorker Command = "worker"
	// CommandMigrate はPostgreSQLのスキーマを最新にする。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの/healthを確認する。distrolessイメージのHEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をCommandに変換する。2つ目以降の引数は見ない。
// 未指定または未知のサブコマンドはCommandServeとして扱う。
func ParseCommand(args []string) Command {
	if len(args) > 0 {
		if c, ok := commands[args[0]]; ok {
			return c
		}
	}
	return CommandServe
}
