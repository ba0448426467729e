package project_scanner

import (
	"strings"
	"testing"

	"github.com/meysamhadeli/projctx/project_scanner/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImports_JavaScript(t *testing.T) {
	source := `import React from 'react';
import { a, b } from "./lib";
import * as path from 'path';
import './styles.css';
export { x } from './reexport';
const fs = require('fs');
const lazy = import('./lazy');
import React2 from 'react';
`
	imports := StrategyFor("javascript").ExtractImports(source)
	assert.Equal(t, []string{"react", "./lib", "path", "./styles.css", "./reexport", "fs", "./lazy"}, imports)

	// TypeScript shares the extractor
	assert.Equal(t, []string{"zod"}, StrategyFor("typescript").ExtractImports("import type { Schema } from 'zod';"))
}

func TestExtractImports_Python(t *testing.T) {
	source := `import os
import numpy as np, pandas
from django.db import models
from . import views

def run():
    import json
`
	imports := StrategyFor("python").ExtractImports(source)
	assert.Equal(t, []string{"os", "numpy", "pandas", "django.db", ".", "json"}, imports)
}

func TestExtractImports_Go(t *testing.T) {
	source := `package main

import "fmt"

import (
	"context"
	str "strings"

	"github.com/spf13/cobra"
)
`
	imports := StrategyFor("go").ExtractImports(source)
	assert.Equal(t, []string{"fmt", "context", "strings", "github.com/spf13/cobra"}, imports)
}

func TestExtractImports_OtherLanguages(t *testing.T) {
	assert.Equal(t, []string{"std::collections::HashMap", "crate::config", "serde"},
		StrategyFor("rust").ExtractImports("use std::collections::HashMap;\npub use crate::config::{A, B};\nextern crate serde;\n"))
	assert.Equal(t, []string{"java.util.List", "org.junit.Assert.*"},
		StrategyFor("java").ExtractImports("import java.util.List;\nimport static org.junit.Assert.*;\n"))
	assert.Equal(t, []string{"stdio.h", "config.h"},
		StrategyFor("c").ExtractImports("#include <stdio.h>\n#include \"config.h\"\n"))
	assert.Equal(t, []string{"System.Text"},
		StrategyFor("csharp").ExtractImports("using System.Text;\n"))
	assert.Equal(t, []string{"json", "./helper"},
		StrategyFor("ruby").ExtractImports("require 'json'\nrequire_relative './helper'\n"))
}

func TestExtractImports_UnknownLanguage(t *testing.T) {
	assert.Empty(t, StrategyFor("cobol").ExtractImports("COPY LIB."))
	assert.Empty(t, StrategyFor("cobol").ExtractSemanticChunks("PROCEDURE DIVISION."))
}

func TestExtractSemanticChunks_Go(t *testing.T) {
	source := `package shop

type Cart struct {
	Items []string
}

func (c *Cart) Add(item string) {
	c.Items = append(c.Items, item)
}

func NewCart() *Cart {
	helper := func() {}
	helper()
	return &Cart{}
}
`
	chunks := StrategyFor("go").ExtractSemanticChunks(source)
	require.Len(t, chunks, 3)

	assert.Equal(t, models.UnitType, chunks[0].Unit)
	assert.Equal(t, 3, chunks[0].StartLine)
	assert.Equal(t, models.UnitMethod, chunks[1].Unit)
	assert.Equal(t, "Add", chunks[1].Name)
	assert.Equal(t, models.UnitFunction, chunks[2].Unit)
	assert.Equal(t, "NewCart", chunks[2].Name)
	assert.True(t, strings.HasPrefix(chunks[2].Content, "func NewCart()"))
	assert.Equal(t, 11, chunks[2].StartLine)
	assert.Equal(t, 15, chunks[2].EndLine)
}

func TestExtractSemanticChunks_PythonSkipsNestedDefinitions(t *testing.T) {
	source := `class Repository:
    def save(self, item):
        return item

def helper():
    def inner():
        pass
    return inner
`
	chunks := StrategyFor("python").ExtractSemanticChunks(source)
	require.Len(t, chunks, 2)
	assert.Equal(t, models.UnitClass, chunks[0].Unit)
	assert.Equal(t, "Repository", chunks[0].Name)
	assert.Equal(t, models.UnitFunction, chunks[1].Unit)
	assert.Equal(t, "helper", chunks[1].Name)
}

func TestExtractSemanticChunks_JavaScript(t *testing.T) {
	source := `function total(items) {
  return items.reduce((sum, item) => sum + item.price, 0);
}

class Basket {
  constructor() { this.items = []; }
}

const format = (value) => value.toFixed(2);
`
	chunks := StrategyFor("javascript").ExtractSemanticChunks(source)
	require.Len(t, chunks, 3)
	assert.Equal(t, models.UnitFunction, chunks[0].Unit)
	assert.Equal(t, models.UnitClass, chunks[1].Unit)
	assert.Equal(t, models.UnitFunction, chunks[2].Unit)
}

func TestExtractSemanticChunks_Rust(t *testing.T) {
	source := `use std::fmt;

pub struct Point {
    x: i32,
}

impl fmt::Display for Point {
    fn fmt(&self, f: &mut fmt::Formatter) -> fmt::Result {
        write!(f, "{}", self.x)
    }
}

fn main() {
    println!("hi");
}
`
	chunks := StrategyFor("rust").ExtractSemanticChunks(source)
	require.Len(t, chunks, 3)
	assert.Equal(t, models.UnitType, chunks[0].Unit)
	assert.Equal(t, "Point", chunks[0].Name)
	assert.Equal(t, models.UnitClass, chunks[1].Unit)
	assert.Equal(t, models.UnitFunction, chunks[2].Unit)
	assert.Equal(t, "main", chunks[2].Name)
	assert.Equal(t, 13, chunks[2].StartLine)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "b", "a", ""}))
	assert.Nil(t, dedupe(nil))
}
