// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"github.com/stacklok/dockerhub-mcp/httperr"
)

// SearchResponse is the Hub search endpoint payload.
type SearchResponse struct {
	Count    int            `json:"count"`
	Next     string         `json:"next,omitempty"`
	Previous string         `json:"previous,omitempty"`
	Results  []SearchResult `json:"results"`
}

// SearchResult is one repository in a search response.
type SearchResult struct {
	RepoName         string `json:"repo_name"`
	ShortDescription string `json:"short_description,omitempty"`
	StarCount        int64  `json:"star_count"`
	PullCount        int64  `json:"pull_count"`
	RepoOwner        string `json:"repo_owner,omitempty"`
	IsOfficial       bool   `json:"is_official"`
	IsAutomated      bool   `json:"is_automated"`
}

// RepositoryDetails is the Hub repository metadata payload.
type RepositoryDetails struct {
	User              string `json:"user"`
	Name              string `json:"name"`
	Namespace         string `json:"namespace"`
	RepositoryType    string `json:"repository_type,omitempty"`
	Description       string `json:"description,omitempty"`
	FullDescription   string `json:"full_description,omitempty"`
	IsPrivate         bool   `json:"is_private"`
	IsAutomated       bool   `json:"is_automated"`
	StarCount         int64  `json:"star_count"`
	PullCount         int64  `json:"pull_count"`
	LastUpdated       string `json:"last_updated,omitempty"`
	DateRegistered    string `json:"date_registered,omitempty"`
	StatusDescription string `json:"status_description,omitempty"`
}

// Validate checks the minimal shape expected from the repository endpoint.
func (r *RepositoryDetails) Validate() error {
	if r.Name == "" || r.Namespace == "" {
		return httperr.Validationf("repository details payload missing name or namespace")
	}
	return nil
}

// TagsResponse is the Hub tag-listing payload.
type TagsResponse struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []Tag  `json:"results"`
}

// Tag is one tag in a tag listing.
type Tag struct {
	Name        string     `json:"name"`
	FullSize    int64      `json:"full_size"`
	LastUpdated string     `json:"last_updated,omitempty"`
	Digest      string     `json:"digest,omitempty"`
	Images      []TagImage `json:"images,omitempty"`
}

// TagImage is one platform-specific image behind a tag.
type TagImage struct {
	Architecture string `json:"architecture"`
	OS           string `json:"os"`
	Variant      string `json:"variant,omitempty"`
	Size         int64  `json:"size"`
	Digest       string `json:"digest,omitempty"`
}

// VulnerabilitySummary counts findings per severity. Critical and high are
// distinct buckets; the upstream scan report keeps them separate and so do we.
type VulnerabilitySummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Unknown  int `json:"unknown"`
}

// Vulnerability is one finding in a scan report.
type Vulnerability struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Package     string `json:"package,omitempty"`
	Version     string `json:"version,omitempty"`
	FixedIn     string `json:"fixed_in,omitempty"`
	Description string `json:"description,omitempty"`
}

// VulnerabilityReport is the Hub scan payload for one repository tag.
// A missing report is represented by a nil pointer at the client level, not
// by an error: absence of a scan is an expected state.
type VulnerabilityReport struct {
	Repository      string               `json:"repository"`
	Tag             string               `json:"tag"`
	ScanStatus      string               `json:"scan_status,omitempty"`
	Summary         VulnerabilitySummary `json:"summary"`
	Vulnerabilities []Vulnerability      `json:"vulnerabilities,omitempty"`
}

// DockerfileResponse is the Hub Dockerfile payload for automated builds.
type DockerfileResponse struct {
	Contents string `json:"contents"`
}

// UserResponse is the Hub /user/ payload, used for credential validation.
type UserResponse struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}
