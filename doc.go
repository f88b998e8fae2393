// Package main provides the entry point for the catalog administration backend.
// It starts a Fiber based REST API that manages categories, products, subjects
// and teachers behind JWT authentication and a role/permission model.
// Records are persisted with gorm, uploaded product images and teacher photos
// are kept in a pluggable blob storage (local filesystem, Aliyun OSS or Cloudinary).
package main
