package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session driver (info)
		"Playing %s":                  "%s を再生中",
		"Got interrupt. Exiting":      "割り込みを受信しました。終了します",
		"Played %d of %d files":       "%d / %d ファイルを再生しました",
		"Clearing display":            "ディスプレイを消去中",
		"Clearing display failed: %v": "ディスプレイの消去に失敗しました: %v",
		"Closing %s failed: %v":       "%s のクローズに失敗しました: %v",
		"Summary written to %s":       "サマリーを %s に書き出しました",
		"Writing summary failed: %v":  "サマリーの書き出しに失敗しました: %v",

		// Playback scheduler
		"Stream: %s %dx%d %s, %.3f fps, frame interval %s":    "ストリーム: %s %dx%d %s, %.3f fps, フレーム間隔 %s",
		"Loop %d done after %.3fs (%d frames)":                "ループ %d 完了: %.3f 秒 (%d フレーム)",
		"Finished playing %d frames %d times for %.1fs total": "%d フレームを %d 回再生しました (合計 %.1f 秒)",
		"Playback of %s interrupted after %d frames":          "%s の再生を %d フレームで中断しました",
		"Can't play %s: %v":                                   "%s を再生できません: %v",
		"Skipping undecodable packet: %v":                     "デコードできないパケットをスキップします: %v",
		"Sending frame failed: %v":                            "フレームの送信に失敗しました: %v",
		"Saving debug frame failed: %v":                       "デバッグフレームの保存に失敗しました: %v",
		"Saving stream info failed: %v":                       "ストリーム情報の保存に失敗しました: %v",

		// Video sources
		"ffprobe not found, reading MP4 metadata directly": "ffprobe が見つかりません。MP4 メタデータを直接読み込みます",
		"Reading packet failed: %v":                        "パケットの読み込みに失敗しました: %v",
		"Falling back to ffmpeg for %s: %v":                "%s は ffmpeg で再生します: %v",
	})
}
