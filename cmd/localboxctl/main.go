// Package main provides the localbox control CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/osa030/localbox/internal/api/httpapi"
)

var (
	app    = kingpin.New("localboxctl", "localbox control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set LOCALBOX_ADMIN_TOKEN env)").Envar("LOCALBOX_ADMIN_TOKEN").String()

	statusCmd  = app.Command("status", "Show transport and library status")
	toggleCmd  = app.Command("toggle", "Toggle play/pause")
	nextCmd    = app.Command("next", "Skip to the next track")
	prevCmd    = app.Command("prev", "Skip to the previous track or restart the current one").Alias("previous")
	rewindCmd  = app.Command("rewind", "Seek backward one step")
	forwardCmd = app.Command("forward", "Seek forward one step")

	seekCmd = app.Command("seek", "Seek to a position")
	seekMs  = seekCmd.Arg("position-ms", "Position in milliseconds").Required().Int64()

	playCmd     = app.Command("play", "Play a library track")
	playLocator = playCmd.Arg("locator", "Track locator (file path)").Required().String()

	sortCmd = app.Command("sort", "Change the library sort order")
	sortKey = sortCmd.Arg("key", "Sort key").Required().Enum("NONE", "TITLE", "ARTIST", "ALBUM")

	libraryCmd = app.Command("library", "Print the grouped library")

	folderCmd       = app.Command("folder", "Manage music folders")
	folderListCmd   = folderCmd.Command("list", "List music folders").Default()
	folderAddCmd    = folderCmd.Command("add", "Add a music folder")
	folderAddPath   = folderAddCmd.Arg("path", "Folder path").Required().String()
	folderRemoveCmd = folderCmd.Command("remove", "Remove a music folder")
	folderRmPath    = folderRemoveCmd.Arg("path", "Folder path").Required().String()

	rescanCmd = app.Command("rescan", "Rescan the music folders")

	subscribeCmd = app.Command("subscribe", "Print state changes until interrupted").Alias("watch")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	c := &client{base: strings.TrimRight(*server, "/"), token: *token, http: &http.Client{Timeout: 10 * time.Second}}
	ctx := context.Background()

	var err error
	switch command {
	case statusCmd.FullCommand():
		err = status(ctx, c)
	case toggleCmd.FullCommand():
		err = c.post(ctx, "/transport/toggle", nil, "Toggled")
	case nextCmd.FullCommand():
		err = c.post(ctx, "/transport/next", nil, "Skipped")
	case prevCmd.FullCommand():
		err = c.post(ctx, "/transport/previous", nil, "Skipped back")
	case rewindCmd.FullCommand():
		err = c.post(ctx, "/transport/rewind", nil, "Rewound")
	case forwardCmd.FullCommand():
		err = c.post(ctx, "/transport/forward", nil, "Fast-forwarded")
	case seekCmd.FullCommand():
		err = c.post(ctx, "/transport/seek", httpapi.SeekRequest{PositionMs: seekMs}, "Seeked")
	case playCmd.FullCommand():
		err = c.post(ctx, "/play", httpapi.PlayRequest{Locator: *playLocator}, "Playing")
	case sortCmd.FullCommand():
		err = c.do(ctx, http.MethodPut, "/sort", httpapi.SortRequest{Key: *sortKey}, nil)
		if err == nil {
			fmt.Printf("Sort order set to %s\n", *sortKey)
		}
	case libraryCmd.FullCommand():
		err = printLibrary(ctx, c)
	case folderListCmd.FullCommand():
		err = listFolders(ctx, c)
	case folderAddCmd.FullCommand():
		err = c.post(ctx, "/folders", httpapi.FolderRequest{Path: *folderAddPath}, "Folder added")
	case folderRemoveCmd.FullCommand():
		err = c.do(ctx, http.MethodDelete, "/folders", httpapi.FolderRequest{Path: *folderRmPath}, nil)
		if err == nil {
			fmt.Println("Folder removed")
		}
	case rescanCmd.FullCommand():
		err = c.post(ctx, "/library/rescan", nil, "Rescan requested")
	case subscribeCmd.FullCommand():
		err = subscribe(c)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// client calls the localbox REST API.
type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) post(ctx context.Context, path string, body any, done string) error {
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return err
	}
	fmt.Println(done)
	return nil
}

// do sends a request to /api/v1 and decodes a JSON response into out when non-nil.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+"/api/v1"+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(httpapi.AdminTokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return errors.Newf("%s: %s", resp.Status, apiErr.Error)
		}
		return errors.Newf("unexpected status: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "failed to decode response")
}

func status(ctx context.Context, c *client) error {
	var s httpapi.Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &s); err != nil {
		return err
	}

	fmt.Println("\n=== CURRENT STATUS ===")
	fmt.Printf("State: %s\n", s.State)
	fmt.Printf("Playing: %v\n", s.IsPlaying)
	fmt.Printf("Position: %s / %s\n", formatMs(s.PositionMs), formatMs(s.DurationMs))
	fmt.Printf("Subscribers: %d\n", s.Subscribers)

	if s.NowPlaying != nil {
		fmt.Println("\nNow Playing:")
		printTrack(*s.NowPlaying)
		fmt.Printf("  Queue: %d of %d\n", s.Queue.Index+1, len(s.Queue.Tracks))
	} else {
		fmt.Println("\nNo track currently playing")
	}

	fmt.Println("\nLibrary:")
	fmt.Printf("  Tracks: %d\n", s.Library.TrackCount)
	fmt.Printf("  Sort: %s\n", s.Library.SortKey)
	fmt.Printf("  Scan: %s\n", s.Library.ScanPhase)
	if s.Library.LastScanAt != nil {
		fmt.Printf("  Last Scan: %s\n", s.Library.LastScanAt.Local().Format(time.DateTime))
	}
	fmt.Printf("  Folders: %v\n", s.Library.Folders)
	fmt.Println()
	return nil
}

func printLibrary(ctx context.Context, c *client) error {
	var entries []httpapi.Entry
	if err := c.do(ctx, http.MethodGet, "/library", nil, &entries); err != nil {
		return err
	}
	printEntries(entries)
	return nil
}

func printEntries(entries []httpapi.Entry) {
	for _, e := range entries {
		if e.Kind == "header" {
			fmt.Printf("\n[%s]\n", e.Label)
			continue
		}
		if e.Track != nil {
			fmt.Printf("  %s - %s (%s)\n", e.Track.Title, e.Track.Artist, e.Track.Album)
		}
	}
	fmt.Println()
}

func listFolders(ctx context.Context, c *client) error {
	var folders []string
	if err := c.do(ctx, http.MethodGet, "/folders", nil, &folders); err != nil {
		return err
	}
	if len(folders) == 0 {
		fmt.Println("No music folders")
		return nil
	}
	for _, f := range folders {
		fmt.Println(f)
	}
	return nil
}

// subscribe streams state messages from the events endpoint.
func subscribe(c *client) error {
	u, err := url.Parse(c.base + "/api/v1/events")
	if err != nil {
		return errors.Wrap(err, "invalid server address")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to connect")
	}
	defer conn.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	fmt.Println("Subscribed. Press Ctrl+C to stop.")
	for {
		var s httpapi.State
		if err := conn.ReadJSON(&s); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				fmt.Println("Stream closed")
				return nil
			}
			return errors.Wrap(err, "stream ended")
		}
		printState(s)
	}
}

func printState(s httpapi.State) {
	now := "-"
	if s.NowPlaying != nil {
		now = fmt.Sprintf("%s - %s", s.NowPlaying.Title, s.NowPlaying.Artist)
	}
	fmt.Printf("#%d playing=%v %s/%s scanning=%v tracks=%d now=%s\n",
		s.SequenceNo, s.IsPlaying, formatMs(s.PositionMs), formatMs(s.DurationMs),
		s.IsScanning, countTracks(s.LibraryView), now)
}

func countTracks(entries []httpapi.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Kind == "track" {
			n++
		}
	}
	return n
}

func printTrack(t httpapi.Track) {
	fmt.Printf("  Title: %s\n", t.Title)
	fmt.Printf("  Artist: %s\n", t.Artist)
	fmt.Printf("  Album: %s\n", t.Album)
	fmt.Printf("  File: %s\n", t.Locator)
}

// formatMs renders milliseconds as m:ss.
func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
