package rigging

// Version of the rigging module
const Version = "0.1.0"
