// Package task manages background job queuing, processing, and lifecycle.
// It runs long topic generation jobs off the HTTP request path, persists them
// so they survive a restart, and periodically resumes topics whose run was
// interrupted. It also provides RunBounded, the bounded fan-out used inside a
// single run.
package task
