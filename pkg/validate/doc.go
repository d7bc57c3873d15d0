// Package validate implements Component C: conversion of raw entity
// metadata into the canonical task.Task records consumed by the
// pre-processor and scheduling algorithms. It owns effort/date/resource
// parsing and the resource-spec vs. concrete-resource classification.
package validate
