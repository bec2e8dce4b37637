package services

// ServiceManager exposes the services the transport layers depend on.
// Study returns nil when the process was started without a question bank.
type ServiceManager interface {
	Conversion() ConversionService
	Study() StudyService
}

type serviceManager struct {
	conversion ConversionService
	study      StudyService
}

func NewServiceManager(conversion ConversionService, study StudyService) ServiceManager {
	return &serviceManager{
		conversion: conversion,
		study:      study,
	}
}

func (m *serviceManager) Conversion() ConversionService {
	return m.conversion
}

func (m *serviceManager) Study() StudyService {
	return m.study
}
