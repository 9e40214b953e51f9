package parser

import (
	"reflect"
	"testing"
)

func TestParse_Frontmatter(t *testing.T) {
	data := []byte(`---
title: Revenue Q1
tags:
  - finding
  - revenue
---

Quarterly numbers look strong. See [[revenue/summary]].`)

	res := Parse(data)
	if res.Title != "Revenue Q1" {
		t.Errorf("title = %q", res.Title)
	}
	if !reflect.DeepEqual(res.Tags, []string{"finding", "revenue"}) {
		t.Errorf("tags = %v", res.Tags)
	}
	if !reflect.DeepEqual(res.Links, []string{"revenue/summary"}) {
		t.Errorf("links = %v", res.Links)
	}
	if res.Body == "" || res.Body[0] == '-' {
		t.Errorf("body should exclude frontmatter: %q", res.Body)
	}
}

func TestParse_TitleFromHeading(t *testing.T) {
	res := Parse([]byte("# Heading Title\n\nbody"))
	if res.Title != "Heading Title" {
		t.Errorf("title = %q", res.Title)
	}
}

func TestParse_NoFrontmatterNoHeading(t *testing.T) {
	res := Parse([]byte("just a body"))
	if res.Title != "" {
		t.Errorf("title = %q, want empty", res.Title)
	}
	if res.Body != "just a body" {
		t.Errorf("body = %q", res.Body)
	}
}

func TestParse_MalformedFrontmatterIsBody(t *testing.T) {
	data := []byte("---\n: bad: [yaml\n---\nbody")
	res := Parse(data)
	if res.Body != string(data) {
		t.Errorf("malformed frontmatter should fall back to full body, got %q", res.Body)
	}
}

func TestParse_WikilinkAliasesAndDedup(t *testing.T) {
	res := Parse([]byte("See [[target|the target]] and [[target]] and [[ other ]]."))
	if !reflect.DeepEqual(res.Links, []string{"target", "other"}) {
		t.Errorf("links = %v", res.Links)
	}
}

func TestParse_InlineTags(t *testing.T) {
	res := Parse([]byte("Findings here #finding and #todo, but not code#fragment."))
	if !reflect.DeepEqual(res.Tags, []string{"finding", "todo"}) {
		t.Errorf("tags = %v", res.Tags)
	}
}

func TestParse_FrontmatterAndInlineTagsMerge(t *testing.T) {
	data := []byte("---\ntags: [alpha]\n---\nbody with #alpha and #beta")
	res := Parse(data)
	if !reflect.DeepEqual(res.Tags, []string{"alpha", "beta"}) {
		t.Errorf("tags = %v", res.Tags)
	}
}
