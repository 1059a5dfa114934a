// Package mocks provides mock implementations for testing launchlens.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the storage ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	jobs := mocks.NewMockJobRepository(ctrl)
//	jobs.EXPECT().Create(gomock.Any(), model.JobTypeSector).Return(job, nil)
//
// A hand-written in-memory implementation of every port lives in ./storage.
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/target/launchlens/internal/core JobRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=record_repository_mock.go github.com/target/launchlens/internal/core RecordRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=result_repository_mock.go github.com/target/launchlens/internal/core ResultRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=work_queue_mock.go github.com/target/launchlens/internal/core WorkQueue
