package jsgen

import (
	"fmt"
	"strings"
)

// Target is the ECMAScript edition the output must run on.
type Target uint8

const (
	ES5 Target = iota
	ES2015
	ES2017
	ES2020
)

func (t Target) String() string {
	switch t {
	case ES5:
		return "es5"
	case ES2015:
		return "es2015"
	case ES2017:
		return "es2017"
	}
	return "es2020"
}

// ParseTarget parses an edition name such as "es5" or "ES2017".
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "es5":
		return ES5, nil
	case "es2015", "es6":
		return ES2015, nil
	case "es2017":
		return ES2017, nil
	case "es2020", "esnext", "":
		return ES2020, nil
	}
	return ES2020, fmt.Errorf("unknown JavaScript target %q", s)
}

// PolyfillConfig selects the polyfills bundled ahead of the module.
type PolyfillConfig struct {
	Target        Target
	Promise       bool
	ArrayMethods  bool
	ObjectMethods bool
	Symbol        bool
}

// DefaultPolyfills returns the configuration used by --polyfills.
func DefaultPolyfills() PolyfillConfig {
	return PolyfillConfig{Target: ES2015, Promise: true, ArrayMethods: true, ObjectMethods: true}
}

// Polyfills returns the polyfill prelude for cfg.
func Polyfills(cfg PolyfillConfig) string {
	var b strings.Builder
	b.WriteString("// Windjammer Polyfills\n")
	b.WriteString("(function(global) {\n")
	b.WriteString("  'use strict';\n\n")
	if cfg.Promise {
		b.WriteString(promisePolyfill)
	}
	if cfg.ArrayMethods {
		b.WriteString("  // Array methods polyfill\n")
		if cfg.Target <= ES2015 {
			b.WriteString(arrayFromPolyfill)
			b.WriteString(arrayFindPolyfill)
		}
		if cfg.Target <= ES2017 {
			b.WriteString(arrayIncludesPolyfill)
		}
	}
	if cfg.ObjectMethods {
		b.WriteString("  // Object methods polyfill\n")
		if cfg.Target <= ES2015 {
			b.WriteString(objectAssignPolyfill)
		}
		if cfg.Target <= ES2017 {
			b.WriteString(objectValuesPolyfill)
		}
	}
	if cfg.Symbol {
		b.WriteString(symbolPolyfill)
	}
	b.WriteString("})(typeof window !== 'undefined' ? window : global);\n")
	return b.String()
}

const promisePolyfill = `  // Promise polyfill
  if (typeof Promise === 'undefined') {
    global.Promise = function(executor) {
      var state = 'pending';
      var value;
      var handlers = [];

      function resolve(result) {
        if (state !== 'pending') return;
        state = 'fulfilled';
        value = result;
        handlers.forEach(handle);
      }

      function reject(error) {
        if (state !== 'pending') return;
        state = 'rejected';
        value = error;
        handlers.forEach(handle);
      }

      function handle(handler) {
        if (state === 'pending') {
          handlers.push(handler);
          return;
        }
        setTimeout(function() {
          var callback = state === 'fulfilled' ? handler.onFulfilled : handler.onRejected;
          if (!callback) {
            (state === 'fulfilled' ? handler.resolve : handler.reject)(value);
            return;
          }
          try {
            handler.resolve(callback(value));
          } catch (e) {
            handler.reject(e);
          }
        }, 0);
      }

      this.then = function(onFulfilled, onRejected) {
        return new Promise(function(resolve, reject) {
          handle({ onFulfilled: onFulfilled, onRejected: onRejected, resolve: resolve, reject: reject });
        });
      };

      this['catch'] = function(onRejected) {
        return this.then(null, onRejected);
      };

      try {
        executor(resolve, reject);
      } catch (e) {
        reject(e);
      }
    };

    Promise.resolve = function(value) {
      return new Promise(function(resolve) { resolve(value); });
    };

    Promise.reject = function(error) {
      return new Promise(function(_, reject) { reject(error); });
    };

    Promise.all = function(promises) {
      return new Promise(function(resolve, reject) {
        var results = [];
        var remaining = promises.length;
        if (remaining === 0) {
          resolve(results);
          return;
        }
        promises.forEach(function(promise, index) {
          Promise.resolve(promise).then(function(value) {
            results[index] = value;
            if (--remaining === 0) resolve(results);
          }, reject);
        });
      });
    };
  }

`

const arrayFromPolyfill = `  if (!Array.from) {
    Array.from = function(arrayLike) {
      return Array.prototype.slice.call(arrayLike);
    };
  }

`

const arrayFindPolyfill = `  if (!Array.prototype.find) {
    Array.prototype.find = function(predicate) {
      for (var i = 0; i < this.length; i++) {
        if (predicate(this[i], i, this)) return this[i];
      }
    };
  }

`

const arrayIncludesPolyfill = `  if (!Array.prototype.includes) {
    Array.prototype.includes = function(element) {
      return this.indexOf(element) !== -1;
    };
  }

`

const objectAssignPolyfill = `  if (!Object.assign) {
    Object.assign = function(target) {
      for (var i = 1; i < arguments.length; i++) {
        var source = arguments[i];
        for (var key in source) {
          if (Object.prototype.hasOwnProperty.call(source, key)) target[key] = source[key];
        }
      }
      return target;
    };
  }

`

const objectValuesPolyfill = `  if (!Object.values) {
    Object.values = function(obj) {
      var values = [];
      for (var key in obj) {
        if (Object.prototype.hasOwnProperty.call(obj, key)) values.push(obj[key]);
      }
      return values;
    };
  }

`

const symbolPolyfill = `  // Symbol polyfill
  if (typeof Symbol === 'undefined') {
    var symbolCounter = 0;
    global.Symbol = function(description) {
      return '__symbol_' + (symbolCounter++) + '_' + (description || '');
    };
    Symbol['for'] = function(key) {
      return '__symbol_for_' + key;
    };
  }

`
