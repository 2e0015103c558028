package main

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		"ftvideo version %s":        "ftvideo バージョン %s",
		"Expected video filename.":  "動画ファイル名を指定してください。",
		"Can't probe %s: %v":        "%s を解析できません: %v",
		"Serving metrics on %s":     "メトリクスを %s で公開しています",
		"Metrics server failed: %v": "メトリクスサーバーが失敗しました: %v",
	})
}
