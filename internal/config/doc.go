// Package config provides configuration parsing for tau projects.
//
// The configuration is stored in tau.json, tau.yaml or tau.yml at the project
// root. This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "counter",
//	  "entry": ".",
//	  "port": 8000,
//	  "theme": "light",
//	  "window": {
//	    "title": "Counter",
//	    "width": 800,
//	    "height": 600
//	  },
//	  "reload": {
//	    "policy": "hard",
//	    "watchMode": "poll",
//	    "debounce": "400ms",
//	    "ignore": ["assets/generated"]
//	  },
//	  "build": {
//	    "output": ".tau/build/app"
//	  }
//	}
//
// The same keys are accepted in YAML.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Port:", cfg.Port)
package config
