// Package dxpy wraps the dx command line client for the subset of
// platform operations the toolkit needs. All calls go through a
// utils.Runner so tests can substitute canned responses.
package dxpy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eastglh/dias-toolkit/utils"
)

type Client struct {
	Runner utils.Runner
}

func NewClient(runner utils.Runner) *Client {
	return &Client{Runner: runner}
}

type Project struct {
	ID      string
	Name    string
	Created int64
}

type DataObject struct {
	ID            string
	Project       string
	Name          string
	Folder        string
	Created       int64
	ArchivalState string
}

// findResult mirrors the JSON rows emitted by dx find with --json.
type findResult struct {
	ID       string `json:"id"`
	Project  string `json:"project"`
	Describe struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Folder        string `json:"folder"`
		Created       int64  `json:"created"`
		ArchivalState string `json:"archivalState"`
	} `json:"describe"`
}

// FindProjects lists projects whose name matches a glob pattern,
// optionally bounded by creation date strings in dx date syntax.
func (c *Client) FindProjects(pattern, createdAfter, createdBefore string) ([]Project, error) {
	args := []string{"find", "projects", "--name", pattern, "--json"}
	if createdAfter != "" {
		args = append(args, "--created-after", createdAfter)
	}
	if createdBefore != "" {
		args = append(args, "--created-before", createdBefore)
	}
	out, err := c.Runner.Output("dx", args...)
	if err != nil {
		return nil, fmt.Errorf("finding projects matching %q: %w", pattern, err)
	}

	var results []findResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		return nil, fmt.Errorf("parsing dx find projects output: %w", err)
	}

	projects := make([]Project, 0, len(results))
	for _, res := range results {
		projects = append(projects, Project{
			ID:      res.Describe.ID,
			Name:    res.Describe.Name,
			Created: res.Describe.Created,
		})
	}
	return projects, nil
}

// FindDataObjects lists files in a project whose name matches a glob
// pattern.
func (c *Client) FindDataObjects(projectID, pattern string) ([]DataObject, error) {
	out, err := c.Runner.Output("dx", "find", "data",
		"--project", projectID, "--name", pattern, "--class", "file", "--json")
	if err != nil {
		return nil, fmt.Errorf("finding files matching %q in %s: %w", pattern, projectID, err)
	}

	var results []findResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		return nil, fmt.Errorf("parsing dx find data output: %w", err)
	}

	objects := make([]DataObject, 0, len(results))
	for _, res := range results {
		project := res.Project
		if project == "" {
			project = projectID
		}
		objects = append(objects, DataObject{
			ID:            res.Describe.ID,
			Project:       project,
			Name:          res.Describe.Name,
			Folder:        res.Describe.Folder,
			Created:       res.Describe.Created,
			ArchivalState: res.Describe.ArchivalState,
		})
	}
	return objects, nil
}

// Download fetches a file into destDir, overwriting any existing copy.
func (c *Client) Download(projectID, fileID, destDir string) error {
	target := fmt.Sprintf("%s:%s", projectID, fileID)
	if err := c.Runner.Run("dx", "download", target, "-f", "-o", destDir+"/"); err != nil {
		return fmt.Errorf("downloading %s: %w", target, err)
	}
	return nil
}

// Upload pushes a local file to a project folder and returns the new
// file ID.
func (c *Client) Upload(path, destProject, destFolder string) (string, error) {
	dest := destProject + ":" + destFolder
	out, err := c.Runner.Output("dx", "upload", path, "--destination", dest, "--brief")
	if err != nil {
		return "", fmt.Errorf("uploading %s to %s: %w", path, dest, err)
	}
	return strings.TrimSpace(out), nil
}

// Unarchive requests restore of archived files in one project.
func (c *Client) Unarchive(projectID string, fileIDs []string) error {
	args := []string{"unarchive", "-y"}
	for _, fileID := range fileIDs {
		args = append(args, fmt.Sprintf("%s:%s", projectID, fileID))
	}
	if err := c.Runner.Run("dx", args...); err != nil {
		return fmt.Errorf("unarchiving %d files in %s: %w", len(fileIDs), projectID, err)
	}
	return nil
}

// TerminateJob stops a running platform job.
func (c *Client) TerminateJob(jobID string) error {
	if err := c.Runner.Run("dx", "terminate", jobID); err != nil {
		return fmt.Errorf("terminating %s: %w", jobID, err)
	}
	return nil
}
