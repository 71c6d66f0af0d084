// Package planner turns classified scene records into transfer pairs.
package planner
