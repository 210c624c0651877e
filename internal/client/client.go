// Package client talks to a running launcher daemon over its Unix socket.
// Every function returns an error when no daemon is reachable, letting the
// CLI fall back to working from the cache directly.
package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/server/models"
)

func getSocketDir() string {
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		return runtime
	}

	if os.Getuid() == 0 {
		if _, err := os.Stat("/run"); err == nil {
			return "/run/ignitero"
		}
		return "/var/run/ignitero"
	}

	return os.TempDir()
}

func findRunningSocket() (string, error) {
	dir := getSocketDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("service not running")
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "ignitero-") || !strings.HasSuffix(entry.Name(), ".sock") {
			continue
		}

		socketPath := filepath.Join(dir, entry.Name())
		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return socketPath, nil
		}
	}

	return "", fmt.Errorf("service not running")
}

func sendRequest(method string, params map[string]interface{}) (json.RawMessage, error) {
	socketPath, err := findRunningSocket()
	if err != nil {
		return nil, err
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("service not running")
	}
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	if scanner.Scan() {
		// Read and discard server info line
	}

	req := models.Request{
		ID:     1,
		Method: method,
		Params: params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, err
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("no response from server")
	}

	var resp struct {
		ID     int             `json:"id,omitempty"`
		Result json.RawMessage `json:"result,omitempty"`
		Error  string          `json:"error,omitempty"`
	}
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, err
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("%s", resp.Error)
	}

	return resp.Result, nil
}

// Ping checks whether a daemon is reachable.
func Ping() error {
	_, err := sendRequest("ping", nil)
	return err
}

func SearchApps(query string) ([]catalog.AppItem, error) {
	result, err := sendRequest("search.apps", map[string]interface{}{"query": query})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []catalog.AppItem `json:"items"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func SearchDirectories(query string) ([]catalog.DirectoryItem, error) {
	result, err := sendRequest("search.directories", map[string]interface{}{"query": query})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []catalog.DirectoryItem `json:"items"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func SearchCommands(query string) ([]catalog.CommandItem, error) {
	result, err := sendRequest("search.commands", map[string]interface{}{"query": query})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []catalog.CommandItem `json:"items"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func Refresh() (string, error) {
	return statusRequest("refresh")
}

func CacheStatus() (map[string]interface{}, error) {
	result, err := sendRequest("cache.status", nil)
	if err != nil {
		return nil, err
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(result, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func CacheClear() (string, error) {
	return statusRequest("cache.clear")
}

func WatchStart() (string, error) {
	return statusRequest("watch.start")
}

func WatchStop() (string, error) {
	return statusRequest("watch.stop")
}

func WatchStatus() (string, error) {
	return statusRequest("watch.status")
}

func statusRequest(method string) (string, error) {
	result, err := sendRequest(method, nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
