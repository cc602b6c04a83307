package dxpy

import (
	"fmt"
	"strings"
	"testing"
)

// fakeRunner records invocations and serves canned stdout keyed by the
// joined command line.
type fakeRunner struct {
	calls   []string
	outputs map[string]string
	failOn  string
}

func (f *fakeRunner) record(name string, args ...string) string {
	call := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, call)
	return call
}

func (f *fakeRunner) Run(name string, args ...string) error {
	call := f.record(name, args...)
	if f.failOn != "" && strings.Contains(call, f.failOn) {
		return fmt.Errorf("exit status 1")
	}
	return nil
}

func (f *fakeRunner) Output(name string, args ...string) (string, error) {
	call := f.record(name, args...)
	if f.failOn != "" && strings.Contains(call, f.failOn) {
		return "", fmt.Errorf("exit status 1")
	}
	if out, ok := f.outputs[call]; ok {
		return out, nil
	}
	return "[]", nil
}

func TestFindProjects(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"dx find projects --name 002_*_CEN --json --created-after 2024-01-01": `[
			{"id": "project-AAA", "describe": {"id": "project-AAA", "name": "002_240102_A01295_0001_AHWYNN_CEN", "created": 1704153600000}},
			{"id": "project-BBB", "describe": {"id": "project-BBB", "name": "002_240105_A01295_0002_BHWYNN_CEN", "created": 1704412800000}}
		]`,
	}}
	client := NewClient(runner)

	projects, err := client.FindProjects("002_*_CEN", "2024-01-01", "")
	if err != nil {
		t.Fatalf("FindProjects returned error: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].ID != "project-AAA" || projects[0].Created != 1704153600000 {
		t.Errorf("unexpected first project: %+v", projects[0])
	}
}

func TestFindDataObjects(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"dx find data --project project-AAA --name *.vcf.gz --class file --json": `[
			{"id": "file-XXX", "project": "project-AAA",
			 "describe": {"id": "file-XXX", "name": "s1.vcf.gz", "folder": "/output", "created": 1, "archivalState": "live"}}
		]`,
	}}
	client := NewClient(runner)

	objects, err := client.FindDataObjects("project-AAA", "*.vcf.gz")
	if err != nil {
		t.Fatalf("FindDataObjects returned error: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
	obj := objects[0]
	if obj.ID != "file-XXX" || obj.Project != "project-AAA" || obj.ArchivalState != "live" {
		t.Errorf("unexpected object: %+v", obj)
	}
}

func TestFindDataObjectsBadJSON(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"dx find data --project project-AAA --name * --class file --json": "not json",
	}}
	client := NewClient(runner)
	if _, err := client.FindDataObjects("project-AAA", "*"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDownload(t *testing.T) {
	runner := &fakeRunner{}
	client := NewClient(runner)
	if err := client.Download("project-AAA", "file-XXX", "/tmp/work"); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	want := "dx download project-AAA:file-XXX -f -o /tmp/work/"
	if len(runner.calls) != 1 || runner.calls[0] != want {
		t.Errorf("unexpected calls: %v", runner.calls)
	}
}

func TestUpload(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"dx upload /tmp/out.vcf.gz --destination project-AAA:/merged --brief": "file-NEW123\n",
	}}
	client := NewClient(runner)
	fileID, err := client.Upload("/tmp/out.vcf.gz", "project-AAA", "/merged")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if fileID != "file-NEW123" {
		t.Errorf("unexpected file ID %q", fileID)
	}
}

func TestUnarchive(t *testing.T) {
	runner := &fakeRunner{}
	client := NewClient(runner)
	if err := client.Unarchive("project-AAA", []string{"file-X", "file-Y"}); err != nil {
		t.Fatalf("Unarchive returned error: %v", err)
	}
	want := "dx unarchive -y project-AAA:file-X project-AAA:file-Y"
	if runner.calls[0] != want {
		t.Errorf("unexpected call %q", runner.calls[0])
	}
}

func TestDownloadError(t *testing.T) {
	runner := &fakeRunner{failOn: "download"}
	client := NewClient(runner)
	err := client.Download("project-AAA", "file-XXX", "/tmp/work")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "project-AAA:file-XXX") {
		t.Errorf("error should name the file: %v", err)
	}
}
