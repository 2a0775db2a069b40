// Package ytdlp wraps the yt-dlp downloader behind per-workflow argument
// profiles: full video fetch, audio-only extraction, and comment-only fetch.
//
// Produced file paths are read back from yt-dlp itself via
// "--print after_move:filepath", never guessed, so the naming contract is
// enforced at the single point where names are created.
package ytdlp
