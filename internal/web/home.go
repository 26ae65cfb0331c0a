package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Home is the browser client: it creates or joins a session, then renders
// websocket messages and their action buttons.
func Home() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Sus Party</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Sus Party</span>
        <h1>Find the impostors.</h1>
        <p>Host a lobby or join one with the code on the host's screen.</p>
      </header>

      <section class="panel">
        <form id="identity" class="join-form">
          <input name="user" type="number" min="1" placeholder="Player number" required/>
          <input name="name" placeholder="Display name" autocomplete="name" required/>
          <input name="code" placeholder="Join code" autocomplete="off"/>
          <button type="submit" name="mode" value="create" class="primary">Create lobby</button>
          <button type="submit" name="mode" value="join" class="secondary">Join lobby</button>
          <button type="button" id="leave">Leave</button>
        </form>
        <div id="result" class="result"></div>
      </section>

      <section class="panel">
        <form id="photo" hidden>
          <input name="photo" type="file" accept="image/*" capture="environment"/>
          <button type="submit" name="kind" value="task">Confirm task</button>
          <button type="submit" name="kind" value="sabotage">Confirm repair</button>
        </form>
        <ol id="feed"></ol>
      </section>
    </main>

    <script>
      const identity = document.getElementById("identity");
      const result = document.getElementById("result");
      const feed = document.getElementById("feed");
      const photo = document.getElementById("photo");
      const items = new Map();
      let socket = null;
      let userId = 0;

      const params = new URLSearchParams(location.search);
      if (params.get("code")) {
        identity.elements.code.value = params.get("code");
      }

      function post(path, body) {
        return fetch(path, {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify(body)
        }).then(async (res) => ({ ok: res.ok, data: await res.json() }));
      }

      function render(frame) {
        let item = items.get(frame.ref);
        if (frame.type === "delete") {
          if (item) { item.remove(); items.delete(frame.ref); }
          return;
        }
        if (frame.type === "edit") {
          if (item) { item.querySelector("p").textContent = frame.text; item.querySelector("div").remove(); }
          return;
        }
        item = document.createElement("li");
        const text = document.createElement("p");
        text.textContent = frame.text;
        item.appendChild(text);
        const menu = document.createElement("div");
        (frame.menu || []).forEach((row) => {
          const line = document.createElement("div");
          row.forEach((button) => {
            const el = document.createElement("button");
            el.textContent = button.label;
            el.addEventListener("click", () => socket.send(JSON.stringify({ action: button.action })));
            line.appendChild(el);
          });
          menu.appendChild(line);
        });
        item.appendChild(menu);
        items.set(frame.ref, item);
        feed.prepend(item);
      }

      function connect() {
        if (socket) { socket.close(); }
        const scheme = location.protocol === "https:" ? "wss://" : "ws://";
        socket = new WebSocket(scheme + location.host + "/ws?user_id=" + userId);
        socket.addEventListener("message", (event) => {
          const frame = JSON.parse(event.data);
          if (frame.type === "hello") { return; }
          render(frame);
        });
      }

      identity.addEventListener("submit", async (event) => {
        event.preventDefault();
        userId = Number(identity.elements.user.value);
        const name = identity.elements.name.value.trim();
        const code = identity.elements.code.value.trim();
        connect();
        await new Promise((resolve) => socket.addEventListener("open", resolve, { once: true }));
        const res = event.submitter.value === "create"
          ? await post("/api/sessions", { user_id: userId, name })
          : await post("/api/sessions/" + encodeURIComponent(code) + "/join", { user_id: userId, name });
        if (!res.ok) {
          result.textContent = res.data.error || "Request failed.";
          return;
        }
        identity.elements.code.value = res.data.code;
        result.textContent = "In lobby " + res.data.code + ".";
        photo.hidden = false;
      });

      document.getElementById("leave").addEventListener("click", async () => {
        const res = await post("/api/sessions/leave", { user_id: userId });
        result.textContent = res.ok ? "You left the lobby." : (res.data.error || "Request failed.");
      });

      photo.addEventListener("submit", (event) => {
        event.preventDefault();
        const file = photo.elements.photo.files[0];
        if (!file) { return; }
        socket.send(JSON.stringify({ confirm: event.submitter.value, photo: file.name }));
      });
    </script>
  </body>
</html>
`)
		return err
	})
}
