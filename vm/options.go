package vm

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine)

// WithObserver sets an observer for VM execution events. The observer is
// called synchronously for every instruction step.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}
